package imaging

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// DefaultCacheCapacity is the number of decoded photos kept in memory.
const DefaultCacheCapacity = 100

// ImageCache is a bounded, access-ordered cache of decoded images keyed by
// path.
//
// Once more than Capacity images are stored, the least recently used entry
// is evicted, so Len() <= Capacity holds after every insertion. Concurrent
// Fetch calls for the same uncached path share a single decode.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(imaging.DefaultCacheCapacity)
//	img, err := cache.Fetch(ctx, "/photos/IMG_0001.jpg")
//	if err != nil {
//	    return err
//	}
type ImageCache struct {
	capacity int
	entries  *lru.Cache[string, image.Image]
	group    singleflight.Group

	// decode is replaceable in tests.
	decode func(path string) (image.Image, error)
}

// NewImageCache creates an empty cache holding at most capacity images.
// A capacity below 1 is treated as 1.
func NewImageCache(capacity int) *ImageCache {
	if capacity < 1 {
		capacity = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, image.Image](capacity)
	return &ImageCache{
		capacity: capacity,
		entries:  entries,
		decode:   decodeFile,
	}
}

// decodeFile reads an image without applying EXIF orientation: the date
// overlay is burned in relative to the sensor frame.
func decodeFile(path string) (image.Image, error) {
	return imaging.Open(path)
}

// Capacity returns the maximum number of cached images.
func (c *ImageCache) Capacity() int {
	return c.capacity
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.entries.Len()
}

// Fetch returns the decoded image for path, decoding it on a miss.
//
// Parameters:
//   - ctx: Bounds how long this caller waits for the decode.
//   - path: File path of the photo; also the cache key.
//
// Returns:
//   - image.Image: The decoded photo, shared with other callers. Do not modify.
//   - error: Non-nil if the photo could not be decoded or ctx ended first.
//
// A hit marks path as most recently used. Concurrent misses for the same
// path share one decode. If ctx ends while waiting, the decode still
// completes and populates the cache for later callers.
//
// # Errors
//
//   - DECODE_UNAVAILABLE if the file is missing, unreadable or not a
//     supported image; failures are not cached
//   - ctx.Err() if ctx is cancelled or times out before the decode finishes
func (c *ImageCache) Fetch(ctx context.Context, path string) (image.Image, error) {
	if img, ok := c.get(path); ok {
		return img, nil
	}

	ch := c.group.DoChan(path, func() (interface{}, error) {
		if img, ok := c.get(path); ok {
			return img, nil
		}
		img, err := c.decode(path)
		if err != nil {
			return nil, apperr.NewDecodeUnavailableError(path, err)
		}
		c.put(path, img)
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

// Load is Fetch without cancellation.
func (c *ImageCache) Load(path string) (image.Image, error) {
	return c.Fetch(context.Background(), path)
}

func (c *ImageCache) get(path string) (image.Image, bool) {
	return c.entries.Get(path)
}

func (c *ImageCache) put(path string, img image.Image) {
	c.entries.Add(path, img)
}

// Contains reports whether path is cached without touching its recency.
func (c *ImageCache) Contains(path string) bool {
	return c.entries.Contains(path)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.entries.Purge()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.entries.Remove(path)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	HasAlpha bool   `json:"has_alpha"`

	// Portrait is true when the pipeline will rotate this photo before cropping.
	Portrait bool `json:"portrait"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and returns its metadata.
// The format is derived from the file extension.
func LoadImageInfo(ctx context.Context, cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		Portrait:      bounds.Dy() > bounds.Dx(),
		FileSizeBytes: stat.Size(),
	}, nil
}
