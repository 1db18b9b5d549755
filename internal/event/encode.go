package event

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// wireEvent is the JSON-lines form read by Decoder.
type wireEvent struct {
	Event      string         `json:"event"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Recorder is a Handler that writes every event it receives as a JSON line
// and passes it on to Next. Recordings can be played back with Decode.
type Recorder struct {
	Next Handler

	mu  sync.Mutex
	enc *json.Encoder
	err error
}

var _ Handler = (*Recorder)(nil)

// NewRecorder records to w and forwards to next, which may be nil.
func NewRecorder(w io.Writer, next Handler) *Recorder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Recorder{Next: next, enc: enc}
}

// Err returns the first write error. Later events are not recorded after
// one, but are still forwarded.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(kind, name string, attrs map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.enc.Encode(wireEvent{Event: kind, Name: name, Attributes: attrs}); err != nil {
		r.err = err
		log.Error().Err(err).Str("event", kind).Msg("recording stopped")
	}
}

// StartSuite implements Handler.
func (r *Recorder) StartSuite(e SuiteStart) {
	r.record(KindStartSuite, e.Name, map[string]any{"longname": e.LongName, "totaltests": e.TotalTests})
	if r.Next != nil {
		r.Next.StartSuite(e)
	}
}

// EndSuite implements Handler.
func (r *Recorder) EndSuite(e SuiteEnd) {
	r.record(KindEndSuite, e.Name, map[string]any{"longname": e.LongName, "status": e.Status, "message": e.Message})
	if r.Next != nil {
		r.Next.EndSuite(e)
	}
}

// StartTest implements Handler.
func (r *Recorder) StartTest(e TestStart) {
	r.record(KindStartTest, e.Name, map[string]any{"longname": e.LongName})
	if r.Next != nil {
		r.Next.StartTest(e)
	}
}

// EndTest implements Handler.
func (r *Recorder) EndTest(e TestEnd) {
	r.record(KindEndTest, e.Name, map[string]any{"longname": e.LongName, "status": e.Status, "message": e.Message})
	if r.Next != nil {
		r.Next.EndTest(e)
	}
}

// StartKeyword implements Handler.
func (r *Recorder) StartKeyword(e KeywordStart) {
	args := e.Args
	if args == nil {
		args = []string{}
	}
	r.record(KindStartKeyword, e.Name, map[string]any{"kwname": e.KwName, "type": e.Type, "args": args})
	if r.Next != nil {
		r.Next.StartKeyword(e)
	}
}

// EndKeyword implements Handler.
func (r *Recorder) EndKeyword(e KeywordEnd) {
	r.record(KindEndKeyword, e.Name, map[string]any{"status": e.Status, "elapsedtime": e.ElapsedMS})
	if r.Next != nil {
		r.Next.EndKeyword(e)
	}
}

// LogMessage implements Handler.
func (r *Recorder) LogMessage(e Message) {
	r.record(KindLogMessage, "", map[string]any{"level": e.Level, "message": e.Text})
	if r.Next != nil {
		r.Next.LogMessage(e)
	}
}

// ConsoleOutput implements Handler. Captured console text is forwarded but
// not recorded: it is not part of the event stream.
func (r *Recorder) ConsoleOutput(stream Stream, text string) {
	if r.Next != nil {
		r.Next.ConsoleOutput(stream, text)
	}
}

// Close implements Handler.
func (r *Recorder) Close() {
	r.record(KindClose, "", nil)
	if r.Next != nil {
		r.Next.Close()
	}
}
