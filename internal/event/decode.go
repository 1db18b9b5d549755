package event

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Event kinds on the wire.
const (
	KindStartSuite   = "start_suite"
	KindEndSuite     = "end_suite"
	KindStartTest    = "start_test"
	KindEndTest      = "end_test"
	KindStartKeyword = "start_keyword"
	KindEndKeyword   = "end_keyword"
	KindLogMessage   = "log_message"
	KindClose        = "close"
)

var (
	// ErrMissingField is wrapped by every error about a required attribute
	// the engine did not send.
	ErrMissingField = errors.New("missing attribute")

	// ErrMalformed is wrapped by errors about lines that are not events.
	ErrMalformed = errors.New("malformed event")
)

// maxLineSize bounds a single event line. Log messages can be large.
const maxLineSize = 64 * 1024 * 1024

// Decoder turns JSON-lines events into Handler calls. Each line is an object
// {"event": kind, "name": name, "attributes": {...}} whose attribute names
// follow Robot Framework's listener v2 interface.
type Decoder struct {
	h         Handler
	seenSuite bool
	closed    bool
	lines     int
}

// NewDecoder returns a decoder dispatching to h.
func NewDecoder(h Handler) *Decoder {
	return &Decoder{h: h}
}

// Closed reports whether a close event has been dispatched.
func (d *Decoder) Closed() bool { return d.closed }

// Line decodes one line and dispatches it. Blank lines are ignored. Events of
// kinds the decoder does not know are skipped.
func (d *Decoder) Line(line []byte) error {
	d.lines++
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	if !gjson.ValidBytes(line) {
		return fmt.Errorf("line %d: %w: not JSON", d.lines, ErrMalformed)
	}
	res := gjson.ParseBytes(line)
	if !res.IsObject() {
		return fmt.Errorf("line %d: %w: not an object", d.lines, ErrMalformed)
	}
	kind := res.Get("event")
	if kind.Type != gjson.String {
		return fmt.Errorf("line %d: %w: no event kind", d.lines, ErrMalformed)
	}
	if d.closed {
		return fmt.Errorf("line %d: %w: %s after close", d.lines, ErrMalformed, kind.Str)
	}

	a := attributes{kind: kind.Str, name: res.Get("name"), r: res.Get("attributes")}
	if err := d.dispatch(a); err != nil {
		return fmt.Errorf("line %d: %w", d.lines, err)
	}
	return nil
}

func (d *Decoder) dispatch(a attributes) error {
	switch a.kind {
	case KindStartSuite:
		e := SuiteStart{Name: a.name.String()}
		if err := a.str("longname", &e.LongName); err != nil {
			return err
		}
		if !d.seenSuite {
			if err := a.number("totaltests", &e.TotalTests); err != nil {
				return err
			}
		} else {
			e.TotalTests = int(a.r.Get("totaltests").Int())
		}
		d.seenSuite = true
		d.h.StartSuite(e)

	case KindEndSuite:
		e := SuiteEnd{Name: a.name.String()}
		if err := errors.Join(
			a.str("longname", &e.LongName),
			a.str("status", &e.Status),
			a.str("message", &e.Message),
		); err != nil {
			return err
		}
		d.h.EndSuite(e)

	case KindStartTest:
		e := TestStart{Name: a.name.String()}
		if err := a.str("longname", &e.LongName); err != nil {
			return err
		}
		d.h.StartTest(e)

	case KindEndTest:
		e := TestEnd{Name: a.name.String()}
		if err := errors.Join(
			a.str("longname", &e.LongName),
			a.str("status", &e.Status),
			a.str("message", &e.Message),
		); err != nil {
			return err
		}
		d.h.EndTest(e)

	case KindStartKeyword:
		var e KeywordStart
		if err := errors.Join(
			a.nameField(&e.Name),
			a.str("kwname", &e.KwName),
			a.str("type", &e.Type),
			a.list("args", &e.Args),
		); err != nil {
			return err
		}
		d.h.StartKeyword(e)

	case KindEndKeyword:
		e := KeywordEnd{Name: a.name.String()}
		var elapsed int
		if err := errors.Join(
			a.str("status", &e.Status),
			a.number("elapsedtime", &elapsed),
		); err != nil {
			return err
		}
		e.ElapsedMS = int64(elapsed)
		d.h.EndKeyword(e)

	case KindLogMessage:
		var e Message
		if err := errors.Join(
			a.str("level", &e.Level),
			a.str("message", &e.Text),
		); err != nil {
			return err
		}
		d.h.LogMessage(e)

	case KindClose:
		d.closed = true
		d.h.Close()

	default:
		log.Debug().Str("event", a.kind).Msg("skipping unknown event")
	}
	return nil
}

// Finish closes the handler if the stream ended without a close event.
func (d *Decoder) Finish() {
	log.Debug().Int("lines", d.lines).Bool("closed", d.closed).Msg("event stream ended")
	if !d.closed {
		d.closed = true
		d.h.Close()
	}
}

// Decode dispatches every line of r to h. The handler is always closed, even
// when decoding stops on an error.
func Decode(r io.Reader, h Handler) error {
	d := NewDecoder(h)
	defer d.Finish()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := d.Line(scanner.Bytes()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

// attributes reads the fields of one event.
type attributes struct {
	kind string
	name gjson.Result
	r    gjson.Result
}

func (a attributes) missing(key string) error {
	return fmt.Errorf("%s: %w %q", a.kind, ErrMissingField, key)
}

func (a attributes) str(key string, dst *string) error {
	v := a.r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return a.missing(key)
	}
	*dst = v.String()
	return nil
}

func (a attributes) number(key string, dst *int) error {
	v := a.r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return a.missing(key)
	}
	if v.Type != gjson.Number {
		return fmt.Errorf("%s: %w: %q is not a number", a.kind, ErrMalformed, key)
	}
	*dst = int(v.Int())
	return nil
}

func (a attributes) list(key string, dst *[]string) error {
	v := a.r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return a.missing(key)
	}
	if !v.IsArray() {
		return fmt.Errorf("%s: %w: %q is not a list", a.kind, ErrMalformed, key)
	}
	items := v.Array()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	*dst = out
	return nil
}

func (a attributes) nameField(dst *string) error {
	if !a.name.Exists() || a.name.Type == gjson.Null {
		return a.missing("name")
	}
	*dst = a.name.String()
	return nil
}
