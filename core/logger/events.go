package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event types written to the log.
const (
	EventRunCommand     = "run_command"
	EventExecFailed     = "exec_failed"
	EventRedirectFailed = "redirect_failed"
	EventForegroundDone = "foreground_done"
	EventJobDone        = "job_done"
	EventBuiltin        = "builtin"
	EventShellExit      = "shell_exit"

	fieldType = "type"
	fieldTime = "time"
)

// Outcome is the terminal status of a process.
type Outcome interface {
	Signaled() bool
	ExitCode() int
	String() string
}

// EventLog writes one JSON object per line. A nil *EventLog discards all
// events.
type EventLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewEventLog creates an event log writing to w.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{w: w, now: time.Now}
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// Record writes an event of the given type with extra fields. Field values
// must be representable by structpb.NewValue.
func (l *EventLog) Record(eventType string, fields map[string]interface{}) error {
	if l == nil {
		return nil
	}

	entry := map[string]interface{}{
		fieldType: eventType,
		fieldTime: l.now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		entry[k] = v
	}

	st, err := structpb.NewStruct(entry)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}
	line, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func outcomeFields(pid int, outcome Outcome) map[string]interface{} {
	fields := map[string]interface{}{
		"pid":    pid,
		"status": outcome.String(),
	}
	if !outcome.Signaled() {
		fields["exit_code"] = outcome.ExitCode()
	}
	return fields
}

// RunCommand records a launched external command.
func (l *EventLog) RunCommand(args []string, pid int, background bool) error {
	return l.Record(EventRunCommand, map[string]interface{}{
		"command":    stringList(args),
		"pid":        pid,
		"background": background,
	})
}

// ExecFailed records a program that couldn't be started.
func (l *EventLog) ExecFailed(args []string, err error) error {
	return l.Record(EventExecFailed, map[string]interface{}{
		"command": stringList(args),
		"error":   err.Error(),
	})
}

// RedirectFailed records a redirection target that couldn't be opened.
func (l *EventLog) RedirectFailed(args []string, err error) error {
	return l.Record(EventRedirectFailed, map[string]interface{}{
		"command": stringList(args),
		"error":   err.Error(),
	})
}

// ForegroundDone records the status of a foreground child.
func (l *EventLog) ForegroundDone(pid int, outcome Outcome) error {
	return l.Record(EventForegroundDone, outcomeFields(pid, outcome))
}

// JobDone records a reaped background child.
func (l *EventLog) JobDone(pid int, outcome Outcome) error {
	return l.Record(EventJobDone, outcomeFields(pid, outcome))
}

// Builtin records a builtin invocation and its return code.
func (l *EventLog) Builtin(args []string, ret int) error {
	return l.Record(EventBuiltin, map[string]interface{}{
		"command": stringList(args),
		"return":  ret,
	})
}

// ShellExit records the end of the session.
func (l *EventLog) ShellExit(terminated int) error {
	return l.Record(EventShellExit, map[string]interface{}{
		"terminated_jobs": terminated,
	})
}
