// Package session holds the state of an interactive filtering session: the
// current image, a single undo slot, and the last completed filter.
// At most one filter runs at a time, on its own goroutine.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/engine"
	"github.com/maax3v3/pixfilter/internal/filter"
	"github.com/maax3v3/pixfilter/internal/histogram"
)

var (
	ErrNoImage       = engine.ErrNoImage
	ErrCancelled     = engine.ErrCancelled
	ErrBusy          = errors.New("a filter is already running")
	ErrNoFilter      = errors.New("no filter has completed yet")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// runFunc matches engine.Run.
type runFunc func(ctx context.Context, f filter.Filter, src *buffer.Buffer, progress engine.ProgressFunc) (*buffer.Buffer, error)

// Result is the terminal outcome of a Job.
type Result struct {
	Filter    filter.Filter
	Image     *buffer.Buffer // nil unless the run completed
	Cancelled bool
	Err       error // set for failures other than cancellation
}

// Job is a handle on a running filter.
type Job struct {
	filter   filter.Filter
	cancel   context.CancelFunc
	progress chan int
	done     chan struct{}
	percent  atomic.Int32
	lastSent int
	result   Result
}

func newJob(f filter.Filter, cancel context.CancelFunc) *Job {
	return &Job{
		filter:   f,
		cancel:   cancel,
		progress: make(chan int, 1),
		done:     make(chan struct{}),
		lastSent: -1,
	}
}

// Filter returns the filter being applied.
func (j *Job) Filter() filter.Filter { return j.filter }

// Progress returns a channel of percentages. Values are non-decreasing;
// intermediate values may be skipped by a slow reader but the latest value
// is always delivered. The channel is closed when the job ends.
func (j *Job) Progress() <-chan int { return j.progress }

// Percent returns the most recently reported percentage.
func (j *Job) Percent() int { return int(j.percent.Load()) }

// Cancel requests cancellation. It takes effect at the next column
// boundary and is a no-op once the job has ended.
func (j *Job) Cancel() { j.cancel() }

// Done is closed when the job has ended and the session state is updated.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job ends and returns its result.
func (j *Job) Wait() Result {
	<-j.done
	return j.result
}

// report publishes p without blocking, replacing an unread older value.
// Only the job goroutine calls it.
func (j *Job) report(p int) {
	j.percent.Store(int32(p))
	if p == j.lastSent {
		return
	}
	j.lastSent = p
	for {
		select {
		case j.progress <- p:
			return
		default:
		}
		select {
		case <-j.progress:
		default:
		}
	}
}

func (j *Job) finish(r Result) {
	j.result = r
	close(j.progress)
	close(j.done)
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	current  *buffer.Buffer
	previous *buffer.Buffer
	last     *filter.Filter
	active   *Job
	worker   *semaphore.Weighted
	run      runFunc
}

// New returns an empty session.
func New() *Session {
	return &Session{
		worker: semaphore.NewWeighted(1),
		run:    engine.Run,
	}
}

// Load replaces the current image. The replaced image moves to the undo
// slot. Loading is rejected while a filter is running.
func (s *Session) Load(b *buffer.Buffer) error {
	if b == nil {
		return ErrNoImage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return ErrBusy
	}
	s.previous = s.current
	s.current = b
	return nil
}

// Current returns the current image, or nil.
func (s *Session) Current() *buffer.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Previous returns the image in the undo slot, or nil.
func (s *Session) Previous() *buffer.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// LastFilter returns the most recently completed filter.
func (s *Session) LastFilter() (filter.Filter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return filter.Filter{}, false
	}
	return *s.last, true
}

// Active returns the running job, or nil.
func (s *Session) Active() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start applies f to the current image on a new goroutine. It fails
// synchronously with ErrBusy if a job is running and ErrNoImage if no image
// is loaded. Cancelling ctx cancels the job.
//
// When the job completes, the output becomes the current image, the old
// current image moves to the undo slot and f becomes the last filter.
// A cancelled job changes nothing.
func (s *Session) Start(ctx context.Context, f filter.Filter) (*Job, error) {
	if !s.worker.TryAcquire(1) {
		return nil, ErrBusy
	}

	s.mu.Lock()
	src := s.current
	if src == nil {
		s.mu.Unlock()
		s.worker.Release(1)
		return nil, ErrNoImage
	}
	runCtx, cancel := context.WithCancel(ctx)
	job := newJob(f, cancel)
	s.active = job
	s.mu.Unlock()

	go s.execute(runCtx, job, src)
	return job, nil
}

func (s *Session) execute(ctx context.Context, job *Job, src *buffer.Buffer) {
	defer job.cancel()

	out, err := s.run(ctx, job.filter, src, job.report)
	res := Result{Filter: job.filter}
	switch {
	case errors.Is(err, engine.ErrCancelled):
		res.Cancelled = true
	case err != nil:
		res.Err = err
	default:
		res.Image = out
	}

	s.mu.Lock()
	if res.Image != nil {
		f := job.filter
		s.previous = src
		s.current = out
		s.last = &f
	}
	s.active = nil
	s.mu.Unlock()

	s.worker.Release(1)
	job.finish(res)
}

// Repeat starts the last completed filter again on the current image.
func (s *Session) Repeat(ctx context.Context) (*Job, error) {
	f, ok := s.LastFilter()
	if !ok {
		return nil, ErrNoFilter
	}
	return s.Start(ctx, f)
}

// Undo swaps the current image with the undo slot, so a second Undo
// restores the first.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return ErrBusy
	}
	if s.previous == nil {
		return ErrNothingToUndo
	}
	s.current, s.previous = s.previous, s.current
	return nil
}

// Histogram returns the intensity histogram of the current image.
func (s *Session) Histogram() (histogram.Histogram, error) {
	cur := s.Current()
	if cur == nil {
		return histogram.Histogram{}, ErrNoImage
	}
	return histogram.Compute(cur), nil
}
