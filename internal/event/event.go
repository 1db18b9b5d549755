// Package event defines the lifecycle events a test engine reports and the
// Handler that consumes them.
package event

// Step kinds with special formatting. Any other kind is shown by name.
const (
	KindKeyword  = "KEYWORD"
	KindSetup    = "SETUP"
	KindTeardown = "TEARDOWN"
)

// Outcome statuses reported by the engine.
const (
	StatusPass   = "PASS"
	StatusFail   = "FAIL"
	StatusSkip   = "SKIP"
	StatusNotRun = "NOT RUN"
)

// Log levels.
const (
	LevelError = "ERROR"
	LevelFail  = "FAIL"
	LevelWarn  = "WARN"
	LevelSkip  = "SKIP"
	LevelInfo  = "INFO"
	LevelDebug = "DEBUG"
	LevelTrace = "TRACE"
)

// Stream names an output channel of the engine process.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// SuiteStart opens a suite. TotalTests is only meaningful on the first suite
// of a run.
type SuiteStart struct {
	Name       string
	LongName   string
	TotalTests int
}

// SuiteEnd closes a suite.
type SuiteEnd struct {
	Name     string
	LongName string
	Status   string
	Message  string
}

// TestStart opens a test.
type TestStart struct {
	Name     string
	LongName string
}

// TestEnd closes a test.
type TestEnd struct {
	Name     string
	LongName string
	Status   string
	Message  string
}

// KeywordStart opens a step.
type KeywordStart struct {
	Name   string // Display name, possibly qualified with its library
	KwName string // Bare step name
	Type   string
	Args   []string
}

// KeywordEnd closes the innermost open step.
type KeywordEnd struct {
	Name      string
	Status    string
	ElapsedMS int64
}

// Message is a log entry raised by the engine.
type Message struct {
	Level string
	Text  string
}

// Handler consumes the events of one run, in delivery order, from a single
// goroutine.
type Handler interface {
	StartSuite(SuiteStart)
	EndSuite(SuiteEnd)
	StartTest(TestStart)
	EndTest(TestEnd)
	StartKeyword(KeywordStart)
	EndKeyword(KeywordEnd)
	LogMessage(Message)
	// ConsoleOutput receives text the engine wrote straight to one of its
	// output streams.
	ConsoleOutput(stream Stream, text string)
	Close()
}
