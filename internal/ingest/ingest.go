// Package ingest turns uploaded images into references that can be stored on
// a record and used directly as an image source: a remote object URL when a
// bucket is configured, otherwise a downscaled JPEG data URL.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/vbonduro/islandlife/internal/objectstore"
)

const (
	// ImageKeyPrefix is the namespace and category segment of uploaded assets.
	ImageKeyPrefix = "island_life/images/"

	MaxDimension = 800
	JPEGQuality  = 70

	// MaxSourcePixels bounds the decoded size of an input image.
	MaxSourcePixels = 40_000_000

	dataURLPrefix = "data:image/jpeg;base64,"
)

var ErrImageTooLarge = errors.New("image dimensions too large")

// remoteProvider returns the configured bucket, or nil in local-only mode.
type remoteProvider interface {
	ObjectStore() objectstore.ObjectStore
}

// Result is the outcome of one ingestion. Warning is set when the remote
// upload failed and the local encoding was used instead.
type Result struct {
	Ref     string `json:"ref"`
	Remote  bool   `json:"remote"`
	Warning string `json:"warning,omitempty"`
}

type Pipeline struct {
	remote remoteProvider
	logger *slog.Logger
	now    func() time.Time
}

func NewPipeline(remote remoteProvider, logger *slog.Logger) *Pipeline {
	return &Pipeline{remote: remote, logger: logger, now: time.Now}
}

// Ingest stores data under a reference usable as an image source. Remote
// failures degrade to the local encoding; an error is only returned when the
// image cannot be decoded locally either.
func (p *Pipeline) Ingest(ctx context.Context, filename string, data []byte) (Result, error) {
	var warning string

	if store := p.remoteStore(); store != nil {
		key := p.objectKey(filename)
		err := store.Put(ctx, key, http.DetectContentType(data), bytes.NewReader(data))
		if err == nil {
			p.logger.Info("asset uploaded", "key", key, "bytes", len(data))
			return Result{Ref: store.URL(key), Remote: true}, nil
		}
		p.logger.Warn("asset upload failed, storing locally", "key", key, "error", err)
		warning = "remote upload failed; image stored locally"
	}

	ref, err := EncodeLocal(data)
	if err != nil {
		return Result{}, err
	}
	p.logger.Debug("asset encoded locally", "input_bytes", len(data), "output_bytes", len(ref))
	return Result{Ref: ref, Warning: warning}, nil
}

func (p *Pipeline) remoteStore() objectstore.ObjectStore {
	if p.remote == nil {
		return nil
	}
	return p.remote.ObjectStore()
}

// objectKey builds island_life/images/{unixMillis}_{random}_{filename}.
func (p *Pipeline) objectKey(filename string) string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 10 {
		suffix = suffix[:10]
	}
	return fmt.Sprintf("%s%d_%s_%s", ImageKeyPrefix, p.now().UnixMilli(), suffix, cleanFilename(filename))
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20 || r == '?' || r == '#' || r == '%':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}

// EncodeLocal decodes an image, fits it inside MaxDimension x MaxDimension
// and returns it as a JPEG data URL.
func EncodeLocal(data []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), MaxDimension)

	// JPEG has no alpha channel; transparent pixels become white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FitWithin scales (w, h) down so the larger side is at most limit,
// preserving aspect ratio. Images already inside the box are unchanged.
func FitWithin(w, h, limit int) (int, int) {
	if w > h {
		if w > limit {
			h = h * limit / w
			w = limit
		}
	} else if h > limit {
		w = w * limit / h
		h = limit
	}
	return max(w, 1), max(h, 1)
}

// IsDataURL reports whether ref is a locally encoded image.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:image/")
}
