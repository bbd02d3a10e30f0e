package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/semaphore"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("ocr: engine pool closed")

// Factory builds one engine for a Pool.
type Factory func() (Recognizer, error)

// Pool hands out OCR engines, each to one task at a time.
//
// At most Size engines exist at once. They are built on first demand and
// reused after Release; an engine passed to Discard is closed and its slot
// freed for a fresh one. Acquire blocks while every engine is checked out.
//
// # Example Usage
//
//	pool := ocr.NewPool(ocr.DefaultSettings(), 4)
//	defer pool.Close()
//	res, err := pool.Recognize(ctx, region)
type Pool struct {
	size    int
	sem     *semaphore.Weighted
	factory Factory

	mu     sync.Mutex
	idle   []Recognizer
	closed bool
}

// NewPool creates a pool of Tesseract engines configured with settings.
func NewPool(settings Settings, size int) *Pool {
	return NewPoolWithFactory(size, func() (Recognizer, error) {
		return NewEngine(settings)
	})
}

// NewPoolWithFactory creates a pool that builds engines with factory.
// A size below 1 is treated as 1.
func NewPoolWithFactory(size int, factory Factory) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:    size,
		sem:     semaphore.NewWeighted(int64(size)),
		factory: factory,
	}
}

// Size returns the maximum number of engines.
func (p *Pool) Size() int {
	return p.size
}

// Idle returns the number of built engines waiting to be checked out.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Acquire checks out an engine, building one if none is idle.
//
// The caller must hand the engine back with exactly one of Release or
// Discard. A build failure frees the slot and is returned as is, so a
// missing trained-data file surfaces as ENGINE_INIT_FAILED.
func (p *Pool) Acquire(ctx context.Context) (Recognizer, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	r, err := p.factory()
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}
	return r, nil
}

// Release returns a healthy engine to the pool.
func (p *Pool) Release(r Recognizer) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		r.Close()
		p.sem.Release(1)
		return
	}
	p.idle = append(p.idle, r)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Discard closes an engine that failed and frees its slot.
func (p *Pool) Discard(r Recognizer) {
	r.Close()
	p.sem.Release(1)
}

// With runs fn with an exclusively held engine.
//
// The engine is discarded only when fn fails with ENGINE_INIT_FAILED or
// ENGINE_RECOGNITION_FAILED. Any other outcome, including input errors such
// as INVALID_REGION, hands it back for reuse.
func (p *Pool) With(ctx context.Context, fn func(Recognizer) error) error {
	r, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		if engineFault(err) {
			p.Discard(r)
		} else {
			p.Release(r)
		}
		return err
	}
	p.Release(r)
	return nil
}

func engineFault(err error) bool {
	switch apperr.CodeOf(err) {
	case apperr.ErrorEngineInitFailed, apperr.ErrorEngineRecognitionFailed:
		return true
	}
	return false
}

// Recognize runs one region through a pooled engine.
func (p *Pool) Recognize(ctx context.Context, region *image.Gray) (*Result, error) {
	var res *Result
	err := p.With(ctx, func(r Recognizer) error {
		var err error
		res, err = r.Recognize(region)
		return err
	})
	return res, err
}

// Close closes every idle engine and makes later Acquire calls fail.
// Engines still checked out are closed when they are handed back.
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for _, r := range idle {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close %d engines: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
