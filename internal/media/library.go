package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jask/pathoscreen/internal/screening"
)

var (
	// ErrPermissionDenied means the library root cannot be read.
	ErrPermissionDenied = errors.New("media library access denied")
	// ErrNotImage means the picked file is not an image.
	ErrNotImage = errors.New("not an image")
)

// Entry is one candidate slide in the library.
type Entry struct {
	Path string
	Name string
	MIME string
	Size int64
}

// Library is a directory of slide images on local disk.
type Library struct {
	root string
}

func NewLibrary(root string) *Library {
	return &Library{root: root}
}

func (l *Library) Root() string { return l.root }

// RequestPermission grants access when the root exists and can be listed.
func (l *Library) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(l.root) == "" {
		return fmt.Errorf("no library configured: %w", ErrPermissionDenied)
	}
	f, err := os.Open(l.root)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.root, errors.Join(ErrPermissionDenied, err))
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.root, errors.Join(ErrPermissionDenied, err))
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", l.root, ErrPermissionDenied)
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("list %s: %w", l.root, errors.Join(ErrPermissionDenied, err))
	}
	return nil
}

// List returns the images directly under the root, sorted by name.
// Files that do not sniff as images are skipped.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	dirents, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", l.root, errors.Join(ErrPermissionDenied, err))
		}
		return nil, fmt.Errorf("read %s: %w", l.root, err)
	}
	var out []Entry
	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		path := filepath.Join(l.root, d.Name())
		mt, err := mimetype.DetectFile(path)
		if err != nil || !isImage(mt) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Path: path, Name: d.Name(), MIME: mt.String(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Open turns a path into a slide handle after checking its content type.
func (l *Library) Open(path string) (screening.SlideImage, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return screening.SlideImage{}, fmt.Errorf("detect %s: %w", path, err)
	}
	if !isImage(mt) {
		return screening.SlideImage{}, fmt.Errorf("%s is %s: %w", filepath.Base(path), mt.String(), ErrNotImage)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return screening.SlideImage{URI: abs, Name: filepath.Base(path), MIME: mt.String()}, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}
