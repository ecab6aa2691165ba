// Package attachment keeps uploaded files consistent with the rows that own
// them. Files are written before their row is committed and removed only
// after their row is gone.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"daycare/internal/core"
	applog "daycare/internal/log"
)

const (
	// DocumentPrefix is prepended to stored document filenames.
	DocumentPrefix = "doc_"
	maxBaseLength  = 100
	maxExtLength   = 16
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// DeleteResult reports what happened to the file after its row was deleted.
type DeleteResult struct {
	Filename    string `json:"filename,omitempty"`
	FileRemoved bool   `json:"file_removed"`
	Warning     string `json:"warning,omitempty"`
}

// Manager owns the flat attachment directory.
type Manager struct {
	dir    string
	logger *applog.Logger
	now    func() time.Time
}

func NewManager(dir string, logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{
		dir:    dir,
		logger: logger.WithComponent(applog.ComponentAttachment),
		now:    time.Now,
	}
}

// EnsureDir creates the attachment directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create attachment directory: %w", err)
	}
	return nil
}

func (m *Manager) Dir() string { return m.dir }

// GenerateName builds a collision-resistant stored name from a client filename.
// The result always sanitizes to itself.
func (m *Manager) GenerateName(prefix, original string) string {
	original = lastPathElement(original)
	ext := sanitizeExt(filepath.Ext(original))
	base := Sanitize(strings.TrimSuffix(original, filepath.Ext(original)))
	if len(base) > maxBaseLength {
		base = strings.Trim(base[:maxBaseLength], "._")
	}
	if base == "" {
		base = "file"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%s_%d_%s%s", prefix, base, m.now().Unix(), suffix, ext)
}

// CreateWith writes the upload and then calls insert with the stored name.
// When insert fails the file is removed again and insert's error is returned.
func (m *Manager) CreateWith(ctx context.Context, up Upload, prefix string, insert func(filename string) error) (string, error) {
	if up.Content == nil {
		return "", core.Validation("no file uploaded", map[string]string{"file": "required"})
	}
	name := m.GenerateName(prefix, up.Filename)
	path := filepath.Join(m.dir, name)

	if err := writeExclusive(path, up.Content); err != nil {
		m.logger.ErrorContext(ctx, "Attachment write failed", applog.FieldFilename, name, applog.FieldError, err)
		return "", core.Attachment("could not store uploaded file", err)
	}
	m.logger.DebugContext(ctx, "Attachment written", applog.FieldFilename, name)

	if err := insert(name); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			m.logger.WarnContext(ctx, "Cleanup of orphaned attachment failed",
				applog.FieldFilename, name, applog.FieldError, rmErr)
		} else {
			m.logger.InfoContext(ctx, "Removed attachment after failed insert", applog.FieldFilename, name)
		}
		return "", err
	}
	return name, nil
}

func writeExclusive(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// DeleteWith runs remove, which deletes the owning row and returns the
// filename it referenced, then removes that file. A failed file removal is
// reported in the result and never fails the call.
func (m *Manager) DeleteWith(ctx context.Context, remove func() (string, error)) (DeleteResult, error) {
	filename, err := remove()
	if err != nil {
		return DeleteResult{}, err
	}
	res := DeleteResult{Filename: filename}
	if filename == "" {
		return res, nil
	}

	if Sanitize(filename) != filename {
		res.Warning = "stored filename is not a plain file name; file left in place"
		m.logger.WarnContext(ctx, "Refusing to remove unsafe attachment path", applog.FieldFilename, filename)
		return res, nil
	}

	err = os.Remove(filepath.Join(m.dir, filename))
	switch {
	case err == nil:
		res.FileRemoved = true
		m.logger.InfoContext(ctx, "Attachment removed", applog.FieldFilename, filename)
	case errors.Is(err, fs.ErrNotExist):
		m.logger.InfoContext(ctx, "Attachment already absent", applog.FieldFilename, filename)
	default:
		res.Warning = "record deleted but its file could not be removed"
		m.logger.WarnContext(ctx, "Attachment removal failed",
			applog.FieldFilename, filename, applog.FieldError, err)
	}
	return res, nil
}

// Open returns the stored file for name. Names that are not already in
// sanitized form are refused as not found.
func (m *Manager) Open(name string) (*os.File, fs.FileInfo, error) {
	if name == "" || Sanitize(name) != name {
		return nil, nil, core.NotFound("file", name)
	}
	f, err := os.Open(filepath.Join(m.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, core.NotFound("file", name)
		}
		return nil, nil, core.Attachment("could not read file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, core.Attachment("could not read file", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, core.NotFound("file", name)
	}
	return f, info, nil
}
