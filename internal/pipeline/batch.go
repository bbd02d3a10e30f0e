package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
	"github.com/ironsheep/photo-date-reader/internal/imaging"
	"github.com/ironsheep/photo-date-reader/internal/logging"
)

// Source hands out decoded photos by path. *imaging.ImageCache implements it.
type Source interface {
	Fetch(ctx context.Context, path string) (image.Image, error)
}

// Item is the outcome for one path: exactly one of Result and Err is set.
type Item struct {
	Path     string        `json:"path"`
	Result   *Result       `json:"result,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Status returns the display text, or "FAILED <code>" for failed items.
func (it Item) Status() string {
	if it.Err != nil {
		code := apperr.CodeOf(it.Err)
		if code == "" {
			return "FAILED " + it.Err.Error()
		}
		return "FAILED " + string(code)
	}
	return it.Result.DisplayText()
}

// Batch collects the items of one Run in input order.
type Batch struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Items    []Item        `json:"items"`
}

// Failed counts items that carry an error.
func (b *Batch) Failed() int {
	n := 0
	for _, it := range b.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// Runner processes many photos with decoding and pixel work bounded by
// separate pools, so a backlog of slow reads does not hold up OCR and a
// burst of OCR does not stall reads.
type Runner struct {
	pipeline *Pipeline
	source   Source
	decode   *semaphore.Weighted
	process  *semaphore.Weighted
	limit    int
	log      *logging.Logger
}

// NewRunner creates a runner. Worker counts below 1 are treated as 1.
func NewRunner(p *Pipeline, src Source, decodeWorkers, processWorkers int, log *logging.Logger) *Runner {
	decodeWorkers = max(1, decodeWorkers)
	processWorkers = max(1, processWorkers)
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{
		pipeline: p,
		source:   src,
		decode:   semaphore.NewWeighted(int64(decodeWorkers)),
		process:  semaphore.NewWeighted(int64(processWorkers)),
		limit:    decodeWorkers + processWorkers,
		log:      log,
	}
}

// ProcessPath fetches one photo and runs it through the pipeline.
func (r *Runner) ProcessPath(ctx context.Context, path string) (*Result, error) {
	if err := r.decode.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	img, err := r.source.Fetch(ctx, path)
	r.decode.Release(1)
	if err != nil {
		return nil, withPath(withStage(err, StageDecode), path)
	}

	if err := r.process.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.process.Release(1)

	res, err := r.pipeline.Process(ctx, imaging.FromImage(img))
	if err != nil {
		return nil, withPath(err, path)
	}
	return res, nil
}

// Run processes every path and returns once all have finished or ctx is
// done. One failure never stops the others; cancelled items report
// ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) *Batch {
	b := &Batch{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Items:   make([]Item, len(paths)),
	}
	log := r.log.With("run_id", b.RunID)
	log.Info("batch started", "photos", len(paths))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, path := range paths {
		g.Go(func() error {
			start := time.Now()
			res, err := r.ProcessPath(ctx, path)
			b.Items[i] = Item{Path: path, Result: res, Err: err, Duration: time.Since(start)}
			if err != nil {
				log.Warn("photo failed", "path", path, "error", err)
			} else {
				log.Debug("photo done", "path", path, "text", res.DisplayText())
			}
			return nil
		})
	}
	g.Wait()

	b.Duration = time.Since(b.Started)
	log.Info("batch finished", "photos", len(paths), "failed", b.Failed(), "duration", b.Duration)
	return b
}

func withPath(err error, path string) error {
	var se *apperr.StampError
	if errors.As(err, &se) {
		return se.WithPath(path)
	}
	return err
}

// ListImages returns the .jpg, .jpeg and .png files directly inside dir,
// sorted by name. Extensions match case-insensitively.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
