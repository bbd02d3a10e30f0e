package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// fakeSource serves synthetic photos and tracks concurrent fetches.
type fakeSource struct {
	mu      sync.Mutex
	images  map[string]image.Image
	active  atomic.Int32
	peak    atomic.Int32
	latency time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{images: make(map[string]image.Image)}
}

func (s *fakeSource) add(path string, img image.Image) {
	s.mu.Lock()
	s.images[path] = img
	s.mu.Unlock()
}

func (s *fakeSource) Fetch(ctx context.Context, path string) (image.Image, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.latency)

	s.mu.Lock()
	img, ok := s.images[path]
	s.mu.Unlock()
	if !ok {
		return nil, apperr.NewDecodeUnavailableError(path, os.ErrNotExist)
	}
	return img, nil
}

// stampPhoto is a 100x100 dark NRGBA image with the overlay block in the
// bottom-right corner.
func stampPhoto() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.NRGBA{R: 10, G: 10, B: 10, A: 255}
			if x >= 78 && x < 98 && y >= 80 {
				c = color.NRGBA{R: 255, G: 165, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRunnerRun(t *testing.T) {
	src := newFakeSource()
	src.add("a.jpg", stampPhoto())
	src.add("c.jpg", stampPhoto())
	src.add("tiny.png", image.NewNRGBA(image.Rect(0, 0, 3, 3)))

	p := newTestPipeline(t, &fakeOCR{result: stampResult()})
	r := NewRunner(p, src, 2, 2, nil)

	paths := []string{"a.jpg", "missing.jpg", "c.jpg", "tiny.png"}
	b := r.Run(context.Background(), paths)

	if _, err := uuid.Parse(b.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", b.RunID, err)
	}
	if len(b.Items) != len(paths) {
		t.Fatalf("got %d items, want %d", len(b.Items), len(paths))
	}
	for i, it := range b.Items {
		if it.Path != paths[i] {
			t.Errorf("item %d path = %q, want %q", i, it.Path, paths[i])
		}
		if (it.Result == nil) == (it.Err == nil) {
			t.Errorf("item %d must have exactly one of Result and Err", i)
		}
	}

	want := []string{"15/07/1998", "FAILED DECODE_UNAVAILABLE", "15/07/1998", "FAILED INVALID_REGION"}
	for i, w := range want {
		if got := b.Items[i].Status(); got != w {
			t.Errorf("item %d status = %q, want %q", i, got, w)
		}
	}
	if b.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", b.Failed())
	}

	var se *apperr.StampError
	if errors.As(b.Items[3].Err, &se) && se.Path != "tiny.png" {
		t.Errorf("error path = %q, want tiny.png", se.Path)
	}
}

func TestRunnerBoundsDecodeConcurrency(t *testing.T) {
	src := newFakeSource()
	src.latency = 5 * time.Millisecond
	var paths []string
	for i := 0; i < 12; i++ {
		path := filepath.Join("photos", string(rune('a'+i))+".jpg")
		src.add(path, stampPhoto())
		paths = append(paths, path)
	}

	r := NewRunner(newTestPipeline(t, &fakeOCR{result: stampResult()}), src, 2, 4, nil)
	b := r.Run(context.Background(), paths)

	if b.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", b.Failed())
	}
	if peak := src.peak.Load(); peak > 2 {
		t.Errorf("peak concurrent decodes = %d, want at most 2", peak)
	}
}

func TestRunnerCancelled(t *testing.T) {
	src := newFakeSource()
	src.add("a.jpg", stampPhoto())
	rec := &fakeOCR{result: stampResult()}
	r := NewRunner(newTestPipeline(t, rec), src, 1, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := r.Run(ctx, []string{"a.jpg", "a.jpg"})
	for i, it := range b.Items {
		if !errors.Is(it.Err, context.Canceled) {
			t.Errorf("item %d err = %v, want context.Canceled", i, it.Err)
		}
	}
	if rec.calls() != 0 {
		t.Error("OCR ran after cancellation")
	}
}

func TestWithPath(t *testing.T) {
	cause := errors.New("unexpected EOF")
	tests := []struct {
		name     string
		err      error
		wantCode apperr.ErrorCode
	}{
		{"stamp error", apperr.NewDecodeUnavailableError("", cause), apperr.ErrorDecodeUnavailable},
		{"wrapped stamp error", fmt.Errorf("fetch: %w", apperr.NewDecodeUnavailableError("", cause)), apperr.ErrorDecodeUnavailable},
		{"plain error", cause, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := withPath(tt.err, "photos/x.jpg")
			if got := apperr.CodeOf(err); got != tt.wantCode {
				t.Fatalf("CodeOf = %q, want %q", got, tt.wantCode)
			}
			var se *apperr.StampError
			if !errors.As(err, &se) {
				if err != tt.err {
					t.Errorf("plain error changed to %v", err)
				}
				return
			}
			if se.Path != "photos/x.jpg" {
				t.Errorf("Path = %q, want photos/x.jpg", se.Path)
			}
		})
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "c.jpeg", "notes.txt", "d.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "e.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	want := []string{"a.JPG", "b.png", "c.jpeg"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != filepath.Join(dir, want[i]) {
			t.Errorf("got[%d] = %q, want %q", i, got[i], filepath.Join(dir, want[i]))
		}
	}

	if _, err := ListImages(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
