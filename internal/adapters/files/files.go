// Package files stores uploaded media on local disk.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ThumbWidth is the width in pixels of generated image thumbnails.
const ThumbWidth = 480

// MaxUploadBytes caps a single stored file.
const MaxUploadBytes = 20 << 20

var (
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrInvalidPath     = errors.New("path is outside the storage root")
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

var videoExts = map[string]bool{".mp4": true, ".webm": true, ".mov": true}

// Saved describes a stored file. Paths are slash-separated and relative to the store root.
type Saved struct {
	Path      string
	ThumbPath string // empty for non-images or when the thumbnail could not be made
}

// Store is the file-storage collaborator used by content orchestrators.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, folder string) (Saved, error)
	Delete(ctx context.Context, p string) error
}

// LocalStore writes files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory files are served from.
func (s *LocalStore) Root() string {
	return s.root
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Save writes r to a fresh uuid-named file under folder, keeping the
// extension of name. Images also get a thumbnail.
// PRE: name carries an allowed image or video extension
// POST: Returns the stored paths; on error nothing is left on disk
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader, folder string) (Saved, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExts[ext] && !videoExts[ext] {
		return Saved{}, ErrUnsupportedType
	}
	folder = strings.Trim(path.Clean("/"+folder), "/")
	dir := filepath.Join(s.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("create folder: %w", err)
	}

	base := uuid.New().String() + ext
	full := filepath.Join(dir, base)
	if err := writeAtomic(ctx, full, r); err != nil {
		return Saved{}, err
	}
	saved := Saved{Path: path.Join(folder, base)}

	if imageExts[ext] {
		thumb := "thumb_" + base
		if err := makeThumbnail(full, filepath.Join(dir, thumb)); err != nil {
			slog.Warn("thumbnail_failed", "path", saved.Path, "error", err)
		} else {
			saved.ThumbPath = path.Join(folder, thumb)
		}
	}
	return saved, nil
}

// Delete removes a stored file and its thumbnail. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	if p == "" {
		return nil
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	thumb := filepath.Join(filepath.Dir(full), "thumb_"+filepath.Base(full))
	if err := os.Remove(thumb); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete thumbnail of %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) resolve(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidPath
	}
	return full, nil
}

func writeAtomic(ctx context.Context, full string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, io.LimitReader(&ctxReader{ctx: ctx, r: r}, MaxUploadBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if n > MaxUploadBytes {
		return ErrTooLarge
	}
	return os.Rename(tmp.Name(), full)
}

func makeThumbnail(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	if img.Bounds().Dx() > ThumbWidth {
		img = imaging.Resize(img, ThumbWidth, 0, imaging.Lanczos)
	}
	return imaging.Save(img, dst)
}

// ctxReader stops a long copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
