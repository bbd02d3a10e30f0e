package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// fakeEngine records use and detects concurrent access.
type fakeEngine struct {
	id     int
	busy   atomic.Bool
	closed atomic.Bool
	fail   error
	shared *atomic.Int32 // set when two tasks use one engine at once
}

func (f *fakeEngine) Recognize(region *image.Gray) (*Result, error) {
	if !f.busy.CompareAndSwap(false, true) {
		f.shared.Add(1)
	}
	defer f.busy.Store(false)
	time.Sleep(time.Millisecond)
	if f.fail != nil {
		return nil, f.fail
	}
	return &Result{FullText: "7", Symbols: []Symbol{{Text: "7"}}}, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	built   []*fakeEngine
	shared  atomic.Int32
	failErr error // returned by the factory itself
}

func (ff *fakeFactory) build() (Recognizer, error) {
	if ff.failErr != nil {
		return nil, ff.failErr
	}
	ff.mu.Lock()
	defer ff.mu.Unlock()
	e := &fakeEngine{id: len(ff.built), shared: &ff.shared}
	ff.built = append(ff.built, e)
	return e, nil
}

func (ff *fakeFactory) count() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.built)
}

func TestPoolReusesEngines(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPoolWithFactory(2, ff.build)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
			t.Fatalf("Recognize failed: %v", err)
		}
	}

	if n := ff.count(); n != 1 {
		t.Errorf("engines built = %d, want 1 for sequential use", n)
	}
	if pool.Idle() != 1 {
		t.Errorf("Idle() = %d, want 1", pool.Idle())
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPoolWithFactory(3, ff.build)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
				t.Errorf("Recognize failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := ff.count(); n > 3 {
		t.Errorf("engines built = %d, want at most 3", n)
	}
	if n := ff.shared.Load(); n != 0 {
		t.Errorf("an engine was used by %d overlapping tasks", n)
	}
}

func TestPoolDiscardsFailedEngine(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPoolWithFactory(1, ff.build)
	ctx := context.Background()

	first, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fe := first.(*fakeEngine)
	fe.fail = apperr.NewEngineRecognitionFailedError(errors.New("no iterator"))
	pool.Release(first)

	_, err = pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, apperr.ErrEngineRecognitionFailed) {
		t.Fatalf("err = %v, want ENGINE_RECOGNITION_FAILED", err)
	}
	if !fe.closed.Load() {
		t.Error("failed engine should be closed")
	}
	if pool.Idle() != 0 {
		t.Errorf("Idle() = %d, want 0 after discard", pool.Idle())
	}

	// The slot is free again and a fresh engine is built.
	if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("Recognize after discard failed: %v", err)
	}
	if n := ff.count(); n != 2 {
		t.Errorf("engines built = %d, want 2", n)
	}
}

func TestPoolKeepsEngineOnInputError(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPoolWithFactory(1, ff.build)
	ctx := context.Background()

	first, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fe := first.(*fakeEngine)
	fe.fail = apperr.NewInvalidRegionError(0, 0, "empty region passed to OCR")
	pool.Release(first)

	_, err = pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, apperr.ErrInvalidRegion) {
		t.Fatalf("err = %v, want INVALID_REGION", err)
	}
	if fe.closed.Load() {
		t.Error("engine should not be closed after an input error")
	}
	if pool.Idle() != 1 {
		t.Errorf("Idle() = %d, want 1", pool.Idle())
	}

	fe.fail = nil
	if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if n := ff.count(); n != 1 {
		t.Errorf("engines built = %d, want 1", n)
	}
}

func TestPoolFactoryErrorFreesSlot(t *testing.T) {
	initErr := apperr.NewEngineInitFailedError("/missing", "7seg", errors.New("not found"))
	ff := &fakeFactory{failErr: initErr}
	pool := NewPoolWithFactory(1, ff.build)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := pool.Acquire(ctx)
		if !errors.Is(err, apperr.ErrEngineInitFailed) {
			t.Fatalf("attempt %d: err = %v, want ENGINE_INIT_FAILED", i, err)
		}
	}
}

func TestPoolAcquireHonoursContext(t *testing.T) {
	pool := NewPoolWithFactory(1, (&fakeFactory{}).build)

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release(held)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestPoolClose(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPoolWithFactory(2, ff.build)
	ctx := context.Background()

	if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	held, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := pool.Acquire(ctx); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("err = %v, want ErrPoolClosed", err)
	}

	pool.Release(held)
	if !held.(*fakeEngine).closed.Load() {
		t.Error("engine released after Close should be closed")
	}
}

func TestNewPoolMinimumSize(t *testing.T) {
	if p := NewPoolWithFactory(0, (&fakeFactory{}).build); p.Size() != 1 {
		t.Errorf("Size() = %d, want 1", p.Size())
	}
}
