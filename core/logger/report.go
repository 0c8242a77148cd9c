package logger

import (
	"encoding/json"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is a single decoded event.
type Entry struct {
	*structpb.Struct
}

// Type returns the event type.
func (e *Entry) Type() string {
	return e.str(fieldType)
}

func (e *Entry) str(key string) string {
	if v, ok := e.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// Command returns the command name of the event, if any.
func (e *Entry) Command() string {
	v, ok := e.GetFields()["command"]
	if !ok {
		return ""
	}
	values := v.GetListValue().GetValues()
	if len(values) == 0 {
		return ""
	}
	return values[0].GetStringValue()
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var st structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &st); err != nil {
			return err
		}

		handler(&Entry{Struct: &st})
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int `json:"log_entries"`

	Events          StrCounter `json:"events"`
	Commands        StrCounter `json:"commands"`
	BackgroundJobs  int        `json:"background_jobs"`
	ForegroundExits StrCounter `json:"foreground_statuses"`
	JobExits        StrCounter `json:"job_statuses"`
	Failures        StrCounter `json:"failures"`
}

// Update adds the entry to the report.
func (r *Report) Update(e *Entry) {
	r.LogEntries++
	r.Events.Increment(e.Type())

	switch e.Type() {
	case EventRunCommand:
		r.Commands.Increment(e.Command())
		if e.GetFields()["background"].GetBoolValue() {
			r.BackgroundJobs++
		}
	case EventForegroundDone:
		r.ForegroundExits.Increment(e.str("status"))
	case EventJobDone:
		r.JobExits.Increment(e.str("status"))
	case EventExecFailed, EventRedirectFailed:
		r.Failures.Increment(fmt.Sprintf("%s: %s", e.Command(), e.str("error")))
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}
