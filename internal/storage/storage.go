// Package storage keeps uploaded files on local disk, grouped in buckets, and
// hands out public URLs for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrTooLarge      = errors.New("file exceeds the bucket size limit")
	ErrNotImage      = errors.New("file is not a supported image")
	ErrEmpty         = errors.New("file is empty")
	ErrUnknownBucket = errors.New("unknown bucket")
)

// Bucket is a named directory with its own upload rules.
type Bucket struct {
	Name       string
	MaxBytes   int64
	ImagesOnly bool
}

var (
	// BriefAssets holds files respondents attach to upload questions.
	BriefAssets = Bucket{Name: "brief-assets", MaxBytes: 10 << 20}
	// Branding holds brief logos and header images.
	Branding = Bucket{Name: "branding", MaxBytes: 2 << 20, ImagesOnly: true}
)

// BucketByName resolves one of the known buckets.
func BucketByName(name string) (Bucket, error) {
	switch name {
	case BriefAssets.Name:
		return BriefAssets, nil
	case Branding.Name:
		return Branding, nil
	}
	return Bucket{}, fmt.Errorf("%w: %q", ErrUnknownBucket, name)
}

// Object describes a stored file.
type Object struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Local stores objects under root/<bucket>/<key> and serves them from
// baseURL/storage/<bucket>/<key>.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put stores the content of r in the bucket. The key is derived from the
// original filename so URLs stay readable.
func (s *Local) Put(ctx context.Context, b Bucket, filename string, r io.Reader) (*Object, error) {
	// 1. Read at most one byte past the limit
	data, err := io.ReadAll(io.LimitReader(r, b.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > b.MaxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Sniff the content; the client's content type is not trusted
	mt := mimetype.Detect(data)
	if b.ImagesOnly && !isRasterImage(mt) {
		return nil, ErrNotImage
	}

	// 3. Create the bucket directory if it doesn't exist
	dir := filepath.Join(s.root, b.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}

	// 4. Write under a unique key
	key := objectKey(filename, mt)
	if err := os.WriteFile(filepath.Join(dir, key), data, 0o644); err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}

	return &Object{
		Bucket:      b.Name,
		Key:         key,
		URL:         s.URL(b.Name, key),
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}, nil
}

// Open returns a reader for a stored object.
func (s *Local) Open(bucket, key string) (io.ReadCloser, error) {
	if _, err := BucketByName(bucket); err != nil {
		return nil, err
	}
	if key != filepath.Base(key) {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.root, bucket, key))
}

// URL is the public address of an object.
func (s *Local) URL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/%s/%s", s.baseURL, bucket, key)
}

// objectKey builds "<uuid>-<slug><ext>". The extension falls back to the
// sniffed type when the filename has none.
func objectKey(filename string, mt *mimetype.MIME) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if ext == "" || !isSafeExt(ext) {
		ext = mt.Extension()
	}
	if name == "" {
		return uuid.NewString() + ext
	}
	if len(name) > 80 {
		name = strings.Trim(name[:80], "-")
	}
	return uuid.NewString() + "-" + name + ext
}

func isSafeExt(ext string) bool {
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return len(ext) > 1 && len(ext) <= 10
}

var rasterImages = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// ServingType returns the content type an object is served with and whether
// a browser may render it inline. Only raster images are inline; everything
// else is an opaque download.
func ServingType(key string) (string, bool) {
	ct, _, _ := mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(key))))
	for _, t := range rasterImages {
		if ct == t {
			return t, true
		}
	}
	return "application/octet-stream", false
}

func isRasterImage(mt *mimetype.MIME) bool {
	for _, t := range rasterImages {
		if mt.Is(t) {
			return true
		}
	}
	return false
}
