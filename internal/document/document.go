// Package document loads and saves the one note this process edits,
// converting through the configured encoding and resolving the target path
// on the first save. Load and Save never fail outward: every outcome is
// reported inside the returned Document so the editor can show it.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"webnote/internal/dialog"
	"webnote/internal/pathcell"
	"webnote/internal/textenc"
)

// Untitled is the title reported while no file is bound.
const Untitled = "Untitled"

// errorTitle marks documents that carry a failure message as content.
const errorTitle = "Error"

// Document is the editor's view of the note plus the outcome of the
// operation that produced it.
type Document struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Saved   bool   `json:"saved"`
}

// Notifier receives note lifecycle events. Methods are called from the
// goroutine performing the operation, after it succeeded.
type Notifier interface {
	// FileBound fires at most once per process, when the path becomes fixed.
	FileBound(path string)
	// FileLoaded fires after each successful read.
	FileLoaded(path string)
	// FileSaved fires after each successful write.
	FileSaved(path string)
}

// Options configures a Service.
type Options struct {
	Path     string // startup path; empty means resolve lazily on first save
	Encoding textenc.Encoding
	Picker   dialog.Picker
	Logger   *slog.Logger
	Notifier Notifier // optional
}

// Service owns the note's path, content I/O, and encoding.
type Service struct {
	cell     *pathcell.Cell
	enc      textenc.Encoding
	picker   dialog.Picker
	logger   *slog.Logger
	notifier Notifier
}

// NewService builds a Service. A non-empty Options.Path is bound immediately;
// otherwise the path is chosen through the Picker on the first save.
func NewService(opts Options) *Service {
	if opts.Encoding.Name() == "" {
		opts.Encoding = textenc.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{
		cell:     pathcell.New(),
		enc:      opts.Encoding,
		picker:   opts.Picker,
		logger:   opts.Logger,
		notifier: opts.Notifier,
	}
	if opts.Path != "" && s.cell.TryInit(opts.Path) {
		s.logger.Info("note path bound", "path", opts.Path)
		if s.notifier != nil {
			s.notifier.FileBound(opts.Path)
		}
	}
	return s
}

// Load reads the note from disk. Failures are reported inside the returned
// Document: the content carries a human-readable message, the title is
// "Error", and Saved is false. An unbound note loads as an empty Untitled
// document.
func (s *Service) Load() Document {
	path, ok := s.cell.Get()
	if !ok {
		return Document{Content: "", Title: Untitled, Saved: false}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read note", "path", path, "error", err)
		return Document{Content: fmt.Sprintf("Error reading file: %v", err), Title: errorTitle, Saved: false}
	}
	content, err := s.enc.Decode(raw)
	if err != nil {
		s.logger.Error("failed to decode note", "path", path, "encoding", s.enc.Name(), "error", err)
		return Document{Content: fmt.Sprintf("Error decoding file: %v", err), Title: errorTitle, Saved: false}
	}
	if s.notifier != nil {
		s.notifier.FileLoaded(path)
	}
	return Document{Content: content, Title: filepath.Base(path), Saved: true}
}

// Save writes content to the note's path, asking the user for a path through
// the dialog the first time. The returned Document reports the outcome:
// Saved is false when the user cancelled, the content does not fit the
// encoding, or the write failed. A failed save leaves the on-disk file
// exactly as it was.
func (s *Service) Save(content string) Document {
	path, bound := s.cell.Get()
	if !bound {
		path = s.resolvePath()
		if path == "" {
			return Document{Content: content, Title: Untitled, Saved: false}
		}
	}

	raw, err := s.enc.Encode(content)
	if err != nil {
		s.logger.Error("failed to encode note", "path", path, "encoding", s.enc.Name(), "error", err)
		return Document{Content: content, Title: filepath.Base(path), Saved: false}
	}
	if err := writeFileAtomic(path, raw); err != nil {
		s.logger.Error("failed to write note", "path", path, "error", err)
		return Document{Content: content, Title: filepath.Base(path), Saved: false}
	}
	if s.notifier != nil {
		s.notifier.FileSaved(path)
	}
	return Document{Content: content, Title: filepath.Base(path), Saved: true}
}

// resolvePath runs the save dialog and settles the race against concurrent
// first saves. It returns the path the write should target, or "" when the
// save is abandoned (dialog cancelled or unavailable). The dialog runs
// outside any lock, so several callers may each hold one open; the first
// TryInit wins and the later ones write to the winner's path.
func (s *Service) resolvePath() string {
	if s.picker == nil {
		s.logger.Warn("no save dialog available and no path bound")
		return ""
	}
	picked, err := s.picker.PickSavePath()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			s.logger.Info("save dialog cancelled")
		} else {
			s.logger.Error("save dialog failed", "error", err)
		}
		return ""
	}
	if s.cell.TryInit(picked) {
		s.logger.Info("note path bound", "path", picked)
		if s.notifier != nil {
			s.notifier.FileBound(picked)
		}
	} else {
		winner, _ := s.cell.Get()
		s.logger.Warn("discarding dialog choice, path already bound", "chosen", picked, "bound", winner)
	}
	path, _ := s.cell.Get()
	return path
}

// Path returns the bound file path, or false while the note has never been
// saved and no startup path was given.
func (s *Service) Path() (string, bool) {
	return s.cell.Get()
}

// Title returns the note's display title: the file's base name once bound,
// Untitled before that.
func (s *Service) Title() string {
	if path, ok := s.cell.Get(); ok {
		return filepath.Base(path)
	}
	return Untitled
}

// EncodingName returns the canonical name of the configured encoding.
func (s *Service) EncodingName() string {
	return s.enc.Name()
}

// writeFileAtomic replaces path in one step: the bytes go to a fresh temp
// file in the same directory, which is then renamed over the target.
// Concurrent writers never interleave; readers see old or new, whole.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
