package gotest

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonsim/robot-trace/internal/event"
	"github.com/jonsim/robot-trace/internal/jsonlog"
)

// RootSuite names the suite every package suite belongs to.
const RootSuite = "Go Tests"

// KindSubtest is the step kind subtests are reported with.
const KindSubtest = "SUBTEST"

// ErrNotJSON is returned for lines that are not test2json events, such as
// output the go command prints itself.
var ErrNotJSON = errors.New("not a test2json event")

// TestEvent is one event of `go test -json` output.
type TestEvent struct {
	Time       time.Time `json:"Time"`
	Action     string    `json:"Action"`
	Package    string    `json:"Package"`
	ImportPath string    `json:"ImportPath"` // Set on build events
	Test       string    `json:"Test"`
	Elapsed    float64   `json:"Elapsed"`
	Output     string    `json:"Output"`
}

// node is a test or subtest whose events are held until its top-level test
// finishes, since parallel tests interleave.
type node struct {
	name     string // Full name, e.g. TestFoo/sub
	short    string // Last path element
	depth    int    // 0 for a top-level test
	status   string
	elapsed  float64
	partial  string
	items    []item
	children map[string]*node
}

// item is an output line or a child subtest, in the order they appeared.
type item struct {
	line  string
	child *node
}

func newNode(name string, depth int) *node {
	short := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		short = name[i+1:]
	}
	return &node{name: name, short: short, depth: depth, children: make(map[string]*node)}
}

func (n *node) done() bool { return n.status != "" }

// appendOutput splits output into complete lines. A trailing partial line is
// kept until the rest of it arrives.
func (n *node) appendOutput(output string) {
	output = n.partial + output
	n.partial = ""

	lines := strings.Split(output, "\n")
	if last := lines[len(lines)-1]; last != "" {
		n.partial = last
	}
	for _, line := range lines[:len(lines)-1] {
		n.items = append(n.items, item{line: line})
	}
}

func (n *node) flushPartial() {
	if n.partial != "" {
		n.items = append(n.items, item{line: n.partial})
		n.partial = ""
	}
}

// pkg holds the state of one package.
type pkg struct {
	path   string
	tests  map[string]*node
	order  []*node
	output node
	failed bool
}

// Adapter turns test2json events into Handler calls. The root suite spans
// the run, every package is a suite, every top-level test a test, and
// subtests are nested steps.
type Adapter struct {
	h       event.Handler
	total   int
	started bool
	closed  bool
	failed  bool
	pkgs    map[string]*pkg
	openPkg *pkg
	emitted int
	ignored int
}

// NewAdapter returns an adapter dispatching to h. total is the number of
// top-level tests expected, 0 when unknown.
func NewAdapter(h event.Handler, total int) *Adapter {
	return &Adapter{h: h, total: total, pkgs: make(map[string]*pkg)}
}

// Closed reports whether Close has run.
func (a *Adapter) Closed() bool { return a.closed }

// Line decodes one line of go test output. Lines that are not events return
// ErrNotJSON and are left to the caller.
func (a *Adapter) Line(line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return ErrNotJSON
	}
	var ev TestEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return ErrNotJSON
	}
	a.Event(ev)
	return nil
}

// Event processes one test2json event.
func (a *Adapter) Event(ev TestEvent) {
	if a.closed {
		return
	}
	a.start()

	path := ev.Package
	if path == "" {
		path = importPath(ev.ImportPath)
	}
	if path == "" {
		a.ignored++
		return
	}
	p := a.pkg(path)

	switch ev.Action {
	case "build-output":
		p.output.appendOutput(ev.Output)
		return
	case "build-fail":
		p.failed = true
		return
	}

	if ev.Test == "" {
		a.packageEvent(p, ev)
		return
	}
	a.testEvent(p, ev)
}

// importPath strips the "[pkg.test]" qualifier of build events.
func importPath(s string) string {
	path, _, _ := strings.Cut(s, " ")
	return path
}

func (a *Adapter) start() {
	if a.started {
		return
	}
	a.started = true
	a.h.StartSuite(event.SuiteStart{Name: RootSuite, LongName: RootSuite, TotalTests: a.total})
}

func (a *Adapter) pkg(path string) *pkg {
	p, ok := a.pkgs[path]
	if !ok {
		p = &pkg{path: path, tests: make(map[string]*node)}
		a.pkgs[path] = p
	}
	return p
}

func suiteName(path string) string {
	return RootSuite + "." + path
}

// openSuite makes p the open package suite, ending any other.
func (a *Adapter) openSuite(p *pkg) {
	if a.openPkg == p {
		return
	}
	if a.openPkg != nil {
		a.endSuite(a.openPkg)
	}
	a.openPkg = p
	a.h.StartSuite(event.SuiteStart{Name: p.path, LongName: suiteName(p.path)})
}

func (a *Adapter) endSuite(p *pkg) {
	status := event.StatusPass
	if p.failed {
		status = event.StatusFail
	}
	a.h.EndSuite(event.SuiteEnd{Name: p.path, LongName: suiteName(p.path), Status: status})
	if a.openPkg == p {
		a.openPkg = nil
	}
}

func (a *Adapter) packageEvent(p *pkg, ev TestEvent) {
	switch ev.Action {
	case "output":
		p.output.appendOutput(ev.Output)
	case "pass", "fail", "skip":
		if ev.Action == "fail" {
			p.failed = true
		}
		a.finishPackage(p, false)
	}
}

// finishPackage reports what is left of p: tests that never finished, then
// the package's own output, and ends its suite. Unfinished tests failed with
// a failed package, were skipped by a passing one, and did not run at all
// when the stream was cut short.
func (a *Adapter) finishPackage(p *pkg, interrupted bool) {
	if p.failed {
		a.failed = true
	}
	var pending []*node
	for _, t := range p.order {
		if !t.done() {
			pending = append(pending, t)
		}
	}
	lines := packageLines(&p.output)
	if len(pending) == 0 && len(lines) == 0 && a.openPkg != p {
		// Nothing to show, e.g. a package without tests.
		delete(a.pkgs, p.path)
		return
	}

	a.openSuite(p)
	for _, t := range pending {
		switch {
		case p.failed:
			t.status = "fail"
		case interrupted:
			t.status = "notrun"
		default:
			t.status = "skip"
		}
		a.emitTest(p, t)
	}

	level := event.LevelInfo
	if p.failed {
		level = event.LevelFail
	}
	for _, line := range lines {
		a.h.LogMessage(event.Message{Level: level, Text: line})
	}
	a.endSuite(p)
	delete(a.pkgs, p.path)
}

// packageLines returns the package output worth showing.
func packageLines(n *node) []string {
	n.flushPartial()
	var lines []string
	for _, it := range n.items {
		line := strings.TrimRight(it.line, " \t\r")
		if line == "" || isFraming(line) || isPackageStatus(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isPackageStatus(line string) bool {
	return line == "PASS" || line == "FAIL" ||
		strings.HasPrefix(line, "ok  \t") ||
		strings.HasPrefix(line, "FAIL\t") ||
		strings.HasPrefix(line, "?   \t")
}

// isFraming reports whether line is one of the markers go test prints around
// each test.
func isFraming(line string) bool {
	line = strings.TrimLeft(line, " ")
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS:", "--- FAIL:", "--- SKIP:"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// lookup returns the node of a test, creating it and any missing parents.
func (p *pkg) lookup(name string) *node {
	parts := strings.Split(name, "/")
	top, ok := p.tests[parts[0]]
	if !ok {
		top = newNode(parts[0], 0)
		p.tests[parts[0]] = top
		p.order = append(p.order, top)
	}
	current := top
	for i := 1; i < len(parts); i++ {
		child, ok := current.children[parts[i]]
		if !ok {
			child = newNode(strings.Join(parts[:i+1], "/"), i)
			current.children[parts[i]] = child
			current.items = append(current.items, item{child: child})
		}
		current = child
	}
	return current
}

func (a *Adapter) testEvent(p *pkg, ev TestEvent) {
	n := p.lookup(ev.Test)
	switch ev.Action {
	case "output":
		n.appendOutput(ev.Output)
	case "pass", "fail", "skip":
		n.status = ev.Action
		n.elapsed = ev.Elapsed
		if n.depth == 0 {
			a.emitTest(p, n)
		}
	}
}

var statuses = map[string]string{
	"pass":   event.StatusPass,
	"fail":   event.StatusFail,
	"skip":   event.StatusSkip,
	"notrun": event.StatusNotRun,
}

var levels = map[string]string{
	"pass":   event.LevelInfo,
	"fail":   event.LevelFail,
	"skip":   event.LevelSkip,
	"notrun": event.LevelInfo,
}

// emitTest reports a finished top-level test as one block.
func (a *Adapter) emitTest(p *pkg, t *node) {
	a.openSuite(p)
	longName := suiteName(p.path) + "." + t.name
	a.h.StartTest(event.TestStart{Name: t.name, LongName: longName})
	a.emitItems(t, t.status)

	message := ""
	switch t.status {
	case "fail":
		message = "Test failed."
	case "skip":
		message = "Test skipped."
	}
	a.h.EndTest(event.TestEnd{Name: t.name, LongName: longName, Status: statuses[t.status], Message: message})
	a.emitted++
	delete(p.tests, t.name)
}

// emitItems reports the output and subtests of n. Subtests that never
// finished take the status of their parent. Structured log lines are shown
// as key: value pairs.
func (a *Adapter) emitItems(n *node, status string) {
	n.flushPartial()
	for _, it := range n.items {
		if it.child != nil {
			a.emitSubtest(it.child, status)
			continue
		}
		if it.line == "" || isFraming(it.line) {
			continue
		}
		text := trimIndent(it.line, 4*(n.depth+1))
		if formatted, ok := jsonlog.Format(text); ok {
			text = formatted
		}
		a.h.LogMessage(event.Message{Level: levels[status], Text: text})
	}
}

func (a *Adapter) emitSubtest(n *node, parentStatus string) {
	if !n.done() {
		n.status = parentStatus
	}
	a.h.StartKeyword(event.KeywordStart{Name: n.name, KwName: n.short, Type: KindSubtest})
	a.emitItems(n, n.status)
	a.h.EndKeyword(event.KeywordEnd{
		Name:      n.name,
		Status:    statuses[n.status],
		ElapsedMS: int64(math.Round(n.elapsed * 1000)),
	})
}

// trimIndent removes up to n leading spaces.
func trimIndent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

// Close reports every package still open, ends the root suite and closes
// the handler. Later calls do nothing.
func (a *Adapter) Close() {
	if a.closed {
		return
	}
	for _, p := range a.sortedPending() {
		a.finishPackage(p, true)
	}
	if a.openPkg != nil {
		a.endSuite(a.openPkg)
	}
	if a.started {
		status := event.StatusPass
		if a.failed {
			status = event.StatusFail
		}
		a.h.EndSuite(event.SuiteEnd{Name: RootSuite, LongName: RootSuite, Status: status})
	}
	a.closed = true
	log.Debug().Int("tests", a.emitted).Int("ignored", a.ignored).Msg("go test stream closed")
	a.h.Close()
}

// sortedPending returns the packages that have not finished, in path order.
func (a *Adapter) sortedPending() []*pkg {
	pending := make([]*pkg, 0, len(a.pkgs))
	for _, p := range a.pkgs {
		pending = append(pending, p)
	}
	slices.SortFunc(pending, func(x, y *pkg) int {
		return strings.Compare(x.path, y.path)
	})
	return pending
}
