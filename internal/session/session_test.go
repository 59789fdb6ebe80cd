package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/color"
	"github.com/maax3v3/pixfilter/internal/engine"
	"github.com/maax3v3/pixfilter/internal/filter"
)

func gradient(w, h int) *buffer.Buffer {
	b := buffer.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, color.RGB{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y)})
		}
	}
	return b
}

func loaded(t *testing.T, b *buffer.Buffer) *Session {
	t.Helper()
	s := New()
	if err := s.Load(b); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func waitResult(t *testing.T, j *Job) Result {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
	return j.Wait()
}

// blockingRunner runs the real engine only after release is closed.
func blockingRunner(release <-chan struct{}) runFunc {
	return func(ctx context.Context, f filter.Filter, src *buffer.Buffer, progress engine.ProgressFunc) (*buffer.Buffer, error) {
		<-release
		return engine.Run(ctx, f, src, progress)
	}
}

func TestStart_NoImage(t *testing.T) {
	s := New()
	if _, err := s.Start(context.Background(), filter.NewInvert()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	// The worker slot must be released after the rejection.
	if err := s.Load(gradient(2, 2)); err != nil {
		t.Fatal(err)
	}
	j, err := s.Start(context.Background(), filter.NewInvert())
	if err != nil {
		t.Fatalf("Start after rejection: %v", err)
	}
	waitResult(t, j)
}

func TestStart_SuccessUpdatesState(t *testing.T) {
	src := gradient(8, 5)
	s := loaded(t, src)

	j, err := s.Start(context.Background(), filter.NewInvert())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, j)
	if res.Cancelled || res.Err != nil || res.Image == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if s.Current() != res.Image {
		t.Error("current image is not the job output")
	}
	if s.Previous() != src {
		t.Error("previous image is not the source")
	}
	if f, ok := s.LastFilter(); !ok || f != filter.NewInvert() {
		t.Errorf("last filter: got %v, %v", f, ok)
	}
	if s.Active() != nil {
		t.Error("job still active after completion")
	}
}

func TestStart_CancelledLeavesStateUntouched(t *testing.T) {
	src := gradient(8, 5)
	before := src.Clone()
	s := loaded(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j, err := s.Start(ctx, filter.NewGrayScale())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, j)
	if !res.Cancelled {
		t.Fatalf("expected cancelled result, got %+v", res)
	}
	if res.Image != nil {
		t.Error("cancelled result carries an image")
	}
	if s.Current() != src || !buffer.Equal(s.Current(), before) {
		t.Error("current image changed after cancellation")
	}
	if s.Previous() != nil {
		t.Error("undo slot changed after cancellation")
	}
	if _, ok := s.LastFilter(); ok {
		t.Error("cancelled filter recorded as last filter")
	}
}

func TestJob_Cancel(t *testing.T) {
	src := gradient(8, 5)
	s := loaded(t, src)
	release := make(chan struct{})
	s.run = blockingRunner(release)

	j, err := s.Start(context.Background(), filter.NewContrast(2))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	j.Cancel()
	close(release)

	if res := waitResult(t, j); !res.Cancelled {
		t.Fatalf("expected cancelled result, got %+v", res)
	}
	if s.Current() != src {
		t.Error("current image changed after cancellation")
	}
}

func TestStart_BusyGuard(t *testing.T) {
	s := loaded(t, gradient(4, 4))
	release := make(chan struct{})
	s.run = blockingRunner(release)

	j, err := s.Start(context.Background(), filter.NewInvert())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Start(context.Background(), filter.NewGrayScale()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start: expected ErrBusy, got %v", err)
	}
	if err := s.Load(gradient(2, 2)); !errors.Is(err, ErrBusy) {
		t.Errorf("Load while running: expected ErrBusy, got %v", err)
	}
	if err := s.Undo(); !errors.Is(err, ErrBusy) {
		t.Errorf("Undo while running: expected ErrBusy, got %v", err)
	}
	if s.Active() != j {
		t.Error("Active did not return the running job")
	}

	close(release)
	waitResult(t, j)

	// Free again once the job is done.
	j2, err := s.Start(context.Background(), filter.NewGrayScale())
	if err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
	waitResult(t, j2)
}

func TestJob_ProgressEndsAt100(t *testing.T) {
	s := loaded(t, gradient(50, 4))
	j, err := s.Start(context.Background(), filter.NewContrast(1.5))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var seen []int
	for p := range j.Progress() {
		seen = append(seen, p)
	}
	if len(seen) == 0 {
		t.Fatal("no progress observed")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress decreased: %v", seen)
		}
	}
	if last := seen[len(seen)-1]; last != 100 {
		t.Errorf("final progress %d, want 100 (%v)", last, seen)
	}
	if j.Percent() != 100 {
		t.Errorf("Percent() = %d, want 100", j.Percent())
	}
}

func TestUndo(t *testing.T) {
	s := New()
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}

	src := gradient(6, 6)
	if err := s.Load(src); err != nil {
		t.Fatal(err)
	}
	j, err := s.Start(context.Background(), filter.NewInvert())
	if err != nil {
		t.Fatal(err)
	}
	out := waitResult(t, j).Image

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if s.Current() != src || s.Previous() != out {
		t.Error("Undo did not swap current and previous")
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if s.Current() != out || s.Previous() != src {
		t.Error("second Undo did not swap back")
	}
}

func TestLoad_MovesCurrentToUndoSlot(t *testing.T) {
	a, b := gradient(2, 2), gradient(3, 3)
	s := loaded(t, a)
	if err := s.Load(b); err != nil {
		t.Fatal(err)
	}
	if s.Current() != b || s.Previous() != a {
		t.Error("Load did not shift the old image into the undo slot")
	}
	if err := s.Load(nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("Load(nil): expected ErrNoImage, got %v", err)
	}
}

func TestRepeat(t *testing.T) {
	s := loaded(t, gradient(5, 5))
	if _, err := s.Repeat(context.Background()); !errors.Is(err, ErrNoFilter) {
		t.Fatalf("expected ErrNoFilter, got %v", err)
	}

	j, err := s.Start(context.Background(), filter.NewBrightness(10))
	if err != nil {
		t.Fatal(err)
	}
	first := waitResult(t, j).Image

	j, err = s.Repeat(context.Background())
	if err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	if j.Filter() != filter.NewBrightness(10) {
		t.Errorf("repeated filter: got %v", j.Filter())
	}
	second := waitResult(t, j).Image
	if s.Previous() != first || s.Current() != second {
		t.Error("Repeat did not chain from the previous output")
	}
	if got, want := second.At(1, 1).G, first.At(1, 1).G+10; got != want {
		t.Errorf("brightness applied twice: got G=%d, want %d", got, want)
	}
}

func TestHistogram(t *testing.T) {
	s := New()
	if _, err := s.Histogram(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if err := s.Load(gradient(9, 4)); err != nil {
		t.Fatal(err)
	}
	h, err := s.Histogram()
	if err != nil {
		t.Fatal(err)
	}
	if h.Total() != 36 {
		t.Errorf("histogram total %d, want 36", h.Total())
	}
}
