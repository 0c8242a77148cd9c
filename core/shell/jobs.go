package shell

import (
	"errors"
	"fmt"
	"syscall"
)

// DefaultMaxJobs is the number of background jobs tracked when no limit is
// configured.
const DefaultMaxJobs = 200

var (
	// ErrJobTableFull is returned when no more background jobs can be tracked.
	ErrJobTableFull = errors.New("too many background jobs")
	// ErrDuplicateJob is returned when a process ID is already tracked.
	ErrDuplicateJob = errors.New("job already tracked")
)

// Completion is a background job that has finished.
type Completion struct {
	Pid    int
	Status Status
}

func (c Completion) String() string {
	return fmt.Sprintf("background pid %d is done: %s", c.Pid, c.Status)
}

// JobTable tracks outstanding background children in launch order.
// It's owned by the dispatch loop and isn't safe for concurrent use.
type JobTable struct {
	procs    ProcessControl
	capacity int
	pids     []int

	// OnDrop is called when a tracked ID can't be waited on any more and is
	// dropped without a completion.
	OnDrop func(pid int, err error)
}

// NewJobTable creates a table holding at most capacity jobs.
func NewJobTable(procs ProcessControl, capacity int) *JobTable {
	if capacity <= 0 {
		capacity = DefaultMaxJobs
	}
	return &JobTable{
		procs:    procs,
		capacity: capacity,
	}
}

// Len returns the number of tracked jobs.
func (jt *JobTable) Len() int {
	return len(jt.pids)
}

// Full reports whether an Insert would fail for lack of space.
func (jt *JobTable) Full() bool {
	return len(jt.pids) >= jt.capacity
}

// Pids returns a copy of the tracked IDs in insertion order.
func (jt *JobTable) Pids() []int {
	return append([]int(nil), jt.pids...)
}

func (jt *JobTable) contains(pid int) bool {
	for _, p := range jt.pids {
		if p == pid {
			return true
		}
	}
	return false
}

// Insert starts tracking pid.
func (jt *JobTable) Insert(pid int) error {
	switch {
	case jt.contains(pid):
		return fmt.Errorf("%w: %d", ErrDuplicateJob, pid)
	case jt.Full():
		return fmt.Errorf("%w (limit %d)", ErrJobTableFull, jt.capacity)
	}
	jt.pids = append(jt.pids, pid)
	return nil
}

// ReapOnce polls every tracked job once without blocking. Finished jobs are
// removed and returned in table order; the rest keep their order.
func (jt *JobTable) ReapOnce() []Completion {
	var done []Completion
	survivors := jt.pids[:0]

	for _, pid := range jt.pids {
		status, finished, err := jt.procs.Poll(pid)
		switch {
		case err != nil && errors.Is(err, ErrNotChild):
			if jt.OnDrop != nil {
				jt.OnDrop(pid, err)
			}
		case err != nil, !finished:
			survivors = append(survivors, pid)
		default:
			done = append(done, Completion{Pid: pid, Status: status})
		}
	}

	// Clear the tail so stale IDs don't linger in the backing array.
	for i := len(survivors); i < len(jt.pids); i++ {
		jt.pids[i] = 0
	}
	jt.pids = survivors
	return done
}

// TerminateAll sends SIGTERM to every tracked job and stops tracking them.
// It doesn't wait for the jobs to exit.
func (jt *JobTable) TerminateAll() error {
	var errs []error
	for _, pid := range jt.pids {
		if err := jt.procs.Signal(pid, syscall.SIGTERM); err != nil {
			errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
		}
	}
	jt.pids = nil
	return errors.Join(errs...)
}
