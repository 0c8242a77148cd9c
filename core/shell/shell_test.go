package shell

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptReader feeds a fixed list of lines to the shell.
type scriptReader struct {
	lines []string
}

func (r *scriptReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func newTestShell(t *testing.T, opts Options, lines ...string) (*Shell, *bytes.Buffer) {
	t.Helper()
	requireProgram(t, "sh")

	out := &bytes.Buffer{}
	opts.Color = ColorNever
	s := New(&scriptReader{lines: lines}, out, opts)
	t.Cleanup(func() {
		_ = s.Jobs.TerminateAll()
	})
	return s, out
}

func TestShell_transcript(t *testing.T) {
	s, out := newTestShell(t, Options{},
		"# a comment is ignored",
		"",
		"   ",
		"status",
		"false",
		"status",
		"true",
		"status",
		"ls >",
		"cd a b",
		"smallsh-no-such-command",
		"status",
		"true",
		"cat < /nonexistent/smallsh-input",
		"status",
		"smallsh-no-such-command &",
		"status",
		"exit",
		"status",
	)
	s.Run()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
	g.Assert(t, "transcript", out.Bytes())
}

func TestShell_RunLineStatus(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	assert.Equal(t, Exited(0), s.LastStatus())

	s.RunLine("false")
	assert.Equal(t, Exited(1), s.LastStatus())

	s.RunLine("true")
	assert.Equal(t, Exited(0), s.LastStatus())

	s.RunLine("smallsh-no-such-command")
	assert.Equal(t, Exited(ExitNotFound), s.LastStatus())

	// Redirection failures leave the status alone.
	s.RunLine("cat < /nonexistent/smallsh-input")
	assert.Equal(t, Exited(ExitNotFound), s.LastStatus())
}

func TestShell_redirectOutput(t *testing.T) {
	s, out := newTestShell(t, Options{})
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	s.RunLine("ls -la " + dir + " > " + outPath)
	assert.Empty(t, out.String())
	assert.True(t, s.LastStatus().Success())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "out.txt")
}

func TestShell_pidExpansion(t *testing.T) {
	s, _ := newTestShell(t, Options{})
	dir := t.TempDir()

	s.RunLine("echo pid=$$ > " + filepath.Join(dir, "out.$$"))

	got, err := os.ReadFile(filepath.Join(dir, "out."+strconv.Itoa(s.Pid())))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("pid=%d\n", os.Getpid()), string(got))
}

func TestShell_foregroundSignal(t *testing.T) {
	s, out := newTestShell(t, Options{})
	script := filepath.Join(t.TempDir(), "killself.sh")
	require.NoError(t, os.WriteFile(script, []byte("kill -TERM $$\n"), 0644))

	s.RunLine("sh " + script)
	assert.Equal(t, "terminated by signal 15\n", out.String())
	assert.Equal(t, Signaled(syscall.SIGTERM), s.LastStatus())

	out.Reset()
	s.RunLine("status")
	assert.Equal(t, "terminated by signal 15\n", out.String())
}

func TestShell_background(t *testing.T) {
	s, out := newTestShell(t, Options{})

	s.RunLine("false")
	s.RunLine("true &")

	var pid int
	_, err := fmt.Sscanf(out.String(), "background pid is %d\n", &pid)
	require.NoError(t, err)
	assert.Equal(t, []int{pid}, s.Jobs.Pids())
	assert.Equal(t, Exited(1), s.LastStatus(), "background jobs don't touch the status")

	want := fmt.Sprintf("background pid %d is done: exit value 0\n", pid)
	assert.Eventually(t, func() bool {
		s.RunLine("status")
		return strings.Contains(out.String(), want)
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, 1, strings.Count(out.String(), want))
	assert.Equal(t, 0, s.Jobs.Len())
}

func TestShell_foregroundOnly(t *testing.T) {
	s, out := newTestShell(t, Options{})

	s.Mode.Toggle()
	s.RunLine("true &")

	assert.Equal(t, "\nEntering foreground-only mode (& is now ignored)\n", out.String())
	assert.Equal(t, 0, s.Jobs.Len())
	assert.Equal(t, Exited(0), s.LastStatus())

	out.Reset()
	s.Mode.Toggle()
	s.RunLine("true &")
	assert.Contains(t, out.String(), "\nExiting foreground-only mode\n")
	assert.Contains(t, out.String(), "background pid is ")
}

func TestShell_jobTableFull(t *testing.T) {
	s, out := newTestShell(t, Options{MaxJobs: 1})

	s.RunLine("sleep 5 &")
	require.Equal(t, 1, s.Jobs.Len())
	out.Reset()

	s.RunLine("sleep 5 &")
	assert.Equal(t, "sleep: too many background jobs\n", out.String())
	assert.Equal(t, 1, s.Jobs.Len())
}

func TestShell_exitTerminatesJobs(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	s.RunLine("sleep 30 &")
	pids := s.Jobs.Pids()
	require.Len(t, pids, 1)

	s.RunLine("exit")
	assert.True(t, s.Quit)
	assert.Equal(t, 0, s.Jobs.Len())

	status, err := SystemProcesses{}.Wait(pids[0])
	require.NoError(t, err)
	assert.Equal(t, Signaled(syscall.SIGTERM), status)
}

func TestShell_reapSkippedForBlankLines(t *testing.T) {
	procs := newFakeProcs()
	s, out := newTestShell(t, Options{Procs: procs})
	require.NoError(t, s.Jobs.Insert(1234))
	procs.finished[1234] = Exited(0)

	s.RunLine("")
	s.RunLine("# sleep 1 &")
	assert.Empty(t, out.String())
	assert.Empty(t, procs.polls)

	s.RunLine("status")
	assert.Equal(t, "exit value 0\nbackground pid 1234 is done: exit value 0\n", out.String())
}

func TestShell_droppedJob(t *testing.T) {
	procs := newFakeProcs()
	var diag bytes.Buffer
	s, out := newTestShell(t, Options{Procs: procs, Log: log.New(&diag, "", 0)})
	require.NoError(t, s.Jobs.Insert(99))
	procs.errs[99] = ErrNotChild

	s.RunLine("status")
	assert.Equal(t, "exit value 0\n", out.String())
	assert.Equal(t, 0, s.Jobs.Len())
	assert.Contains(t, diag.String(), "dropping background pid 99")
}

func TestShell_Run(t *testing.T) {
	t.Run("stops at exit", func(t *testing.T) {
		s, out := newTestShell(t, Options{}, "status", "exit", "status")
		s.Run()
		assert.Equal(t, "exit value 0\n", out.String())
	})

	t.Run("stops at end of input", func(t *testing.T) {
		s, _ := newTestShell(t, Options{}, "sleep 30 &")
		s.Run()
		assert.True(t, s.Quit)
		assert.Equal(t, 0, s.Jobs.Len())
	})
}

func TestShell_events(t *testing.T) {
	var events bytes.Buffer
	s, _ := newTestShell(t, Options{Events: logger.NewEventLog(&events)},
		"true",
		"smallsh-no-such-command",
		"cat < /nonexistent/smallsh-input",
		"status",
		"exit",
	)
	s.Run()

	var types []string
	var report logger.Report
	require.NoError(t, logger.ReadJSONLinesLog(&events, func(e *logger.Entry) {
		types = append(types, e.Type())
		report.Update(e)
	}))

	assert.Equal(t, []string{
		logger.EventRunCommand,
		logger.EventForegroundDone,
		logger.EventExecFailed,
		logger.EventRedirectFailed,
		logger.EventBuiltin,
		logger.EventBuiltin,
		logger.EventShellExit,
	}, types)
	assert.Equal(t, 1, report.Commands.Count("true"))
	assert.Equal(t, 1, report.ForegroundExits.Count("exit value 0"))
}
