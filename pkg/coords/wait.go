package coords

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"time"

	"appmcp/pkg/errs"
)

// PollInterval is used by every poll-based wait condition.
const PollInterval = 100 * time.Millisecond

// Fingerprint is the coarse "did the window change" signal used by
// ui_change: window bounds plus a hash of a downsampled raster. Comparing
// raster metadata alone (dimensions, bit depth) misses nearly every real
// change, so the pixels participate.
type Fingerprint struct {
	Bounds   Rect
	RasterFP uint64
}

func (f Fingerprint) equal(other Fingerprint) bool {
	return f.Bounds == other.Bounds && f.RasterFP == other.RasterFP
}

// HashRaster computes a coarse perceptual fingerprint of img by sampling a
// fixed stride of pixels rather than hashing every byte, so a handful of
// animated pixels (a blinking cursor) don't defeat the comparison.
func HashRaster(img image.Image) uint64 {
	b := img.Bounds()
	h := fnv.New64a()
	const stride = 7
	for y := b.Min.Y; y < b.Max.Y; y += stride {
		for x := b.Min.X; x < b.Max.X; x += stride {
			r, g, bch, a := img.At(x, y).RGBA()
			h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(bch >> 8), byte(a >> 8)})
		}
	}
	return h.Sum64()
}

// Result reports how a wait concluded.
type Result struct {
	Satisfied bool
	Elapsed   time.Duration
}

// Time blocks for exactly duration or until ctx is cancelled.
func Time(ctx context.Context, duration time.Duration) (Result, error) {
	start := time.Now()
	t := time.NewTimer(duration)
	defer t.Stop()
	select {
	case <-t.C:
		return Result{Satisfied: true, Elapsed: time.Since(start)}, nil
	case <-ctx.Done():
		elapsed := time.Since(start)
		return Result{Elapsed: elapsed}, errs.Wrap(errs.Timeout, fmt.Sprintf("wait cancelled after %s", elapsed), ctx.Err())
	}
}

// FingerprintFunc captures the current fingerprint of the target window.
type FingerprintFunc func() (Fingerprint, error)

// UIChange polls fp every PollInterval up to duration, returning as soon as
// the fingerprint differs from its initial reading. It returns normally
// (Satisfied=false) on timeout; only cancellation is an error.
func UIChange(ctx context.Context, duration time.Duration, fp FingerprintFunc) (Result, error) {
	start := time.Now()
	initial, err := fp()
	if err != nil {
		return Result{}, err
	}

	deadline := time.After(duration)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			elapsed := time.Since(start)
			return Result{Elapsed: elapsed}, errs.Wrap(errs.Timeout, fmt.Sprintf("wait cancelled after %s", elapsed), ctx.Err())
		case <-deadline:
			return Result{Satisfied: false, Elapsed: time.Since(start)}, nil
		case <-ticker.C:
			cur, err := fp()
			if err != nil {
				continue
			}
			if !cur.equal(initial) {
				return Result{Satisfied: true, Elapsed: time.Since(start)}, nil
			}
		}
	}
}

// ExistsFunc reports whether a window matching an implementation-defined
// selector currently exists in the directory.
type ExistsFunc func() (bool, error)

// WindowAppear polls exists until it reports true or duration elapses.
func WindowAppear(ctx context.Context, duration time.Duration, exists ExistsFunc) (Result, error) {
	return pollUntil(ctx, duration, exists, true)
}

// WindowDisappear polls exists until it reports false or duration elapses.
func WindowDisappear(ctx context.Context, duration time.Duration, exists ExistsFunc) (Result, error) {
	return pollUntil(ctx, duration, exists, false)
}

func pollUntil(ctx context.Context, duration time.Duration, exists ExistsFunc, want bool) (Result, error) {
	start := time.Now()
	deadline := time.After(duration)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		ok, err := exists()
		if err == nil && ok == want {
			return Result{Satisfied: true, Elapsed: time.Since(start)}, nil
		}
		select {
		case <-ctx.Done():
			elapsed := time.Since(start)
			return Result{Elapsed: elapsed}, errs.Wrap(errs.Timeout, fmt.Sprintf("wait cancelled after %s", elapsed), ctx.Err())
		case <-deadline:
			return Result{Satisfied: false, Elapsed: time.Since(start)}, nil
		case <-ticker.C:
		}
	}
}

// GestureComplete has no richer completion signal in this core, so it is
// treated as Time.
func GestureComplete(ctx context.Context, duration time.Duration) (Result, error) {
	return Time(ctx, duration)
}
