// Package sink writes generated build files to disk.
//
// Writes are staged: every artifact is first written to a temporary file in
// its destination directory, and only when all of them are staged are they
// renamed into place. Existing destinations are moved aside first and put
// back if a later rename fails, so a failed Write leaves the previous files
// as they were.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrResource matches every *ResourceError via errors.Is.
var ErrResource = errors.New("resource error")

// ResourceError reports a file that could not be read or written.
type ResourceError struct {
	Op   string // "read", "write", "rename", ...
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResource) true.
func (e *ResourceError) Is(target error) bool {
	return target == ErrResource
}

// Artifact is one generated file.
type Artifact struct {
	Path    string
	Content string
}

// DefaultFileMode is used for generated files.
const DefaultFileMode os.FileMode = 0o644

// Sink writes artifacts to the filesystem.
type Sink struct {
	logger *slog.Logger
	mode   os.FileMode
	rename func(oldpath, newpath string) error
}

// New creates a Sink. A nil logger discards output.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger, mode: DefaultFileMode, rename: os.Rename}
}

// ReadFile reads a template in full.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ResourceError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

type staged struct {
	tmp  string
	dest string
}

// Write stages every artifact and then moves them into place, overwriting
// whatever was there.
func (s *Sink) Write(ctx context.Context, artifacts []Artifact) error {
	var pending []staged
	cleanup := func() {
		for _, p := range pending {
			_ = os.Remove(p.tmp)
		}
	}

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := s.stage(a)
		if err != nil {
			cleanup()
			return err
		}
		pending = append(pending, staged{tmp: tmp, dest: a.Path})
	}

	var done []replaced
	for i, p := range pending {
		r, err := s.replace(p)
		if err != nil {
			for _, rest := range pending[i:] {
				_ = os.Remove(rest.tmp)
			}
			s.rollback(done)
			return &ResourceError{Op: "rename", Path: p.dest, Err: err}
		}
		done = append(done, r)
	}

	for _, r := range done {
		if r.backup != "" {
			_ = os.Remove(r.backup)
		}
		s.logger.Debug("wrote file", slog.String("path", r.dest))
	}
	return nil
}

// replaced records a destination that now holds new content. backup is the
// previous file, or empty when there was none.
type replaced struct {
	dest   string
	backup string
}

// replace moves any existing destination aside and renames the staged file
// into place. On error the destination is as it was.
func (s *Sink) replace(p staged) (replaced, error) {
	r := replaced{dest: p.dest}
	if _, err := os.Lstat(p.dest); err == nil {
		r.backup = p.tmp + ".bak"
		if err := s.rename(p.dest, r.backup); err != nil {
			return replaced{}, err
		}
	}
	if err := s.rename(p.tmp, p.dest); err != nil {
		if r.backup != "" {
			_ = s.rename(r.backup, p.dest)
		}
		return replaced{}, err
	}
	return r, nil
}

// rollback undoes replacements in reverse order.
func (s *Sink) rollback(done []replaced) {
	for i := len(done) - 1; i >= 0; i-- {
		r := done[i]
		if r.backup == "" {
			_ = os.Remove(r.dest)
			continue
		}
		if err := s.rename(r.backup, r.dest); err != nil {
			s.logger.Warn("could not restore previous file",
				slog.String("path", r.dest),
				slog.String("backup", r.backup),
				slog.Any("error", err))
		}
	}
}

func (s *Sink) stage(a Artifact) (string, error) {
	dir := filepath.Dir(a.Path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".*.tmp")
	if err != nil {
		return "", &ResourceError{Op: "write", Path: a.Path, Err: err}
	}
	tmp := f.Name()

	if _, err := f.WriteString(a.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", &ResourceError{Op: "write", Path: a.Path, Err: err}
	}
	if err := f.Chmod(s.mode); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", &ResourceError{Op: "chmod", Path: a.Path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", &ResourceError{Op: "write", Path: a.Path, Err: err}
	}
	return tmp, nil
}
