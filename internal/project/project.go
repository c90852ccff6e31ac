// Package project holds the Podfile being edited: its on-disk location, the
// current contents shared by every view, and the repository it lives in.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kobzarvs/podedit/internal/logger"
)

// PodfileName is the file opened when a directory is given.
const PodfileName = "Podfile"

// Observer is told when the contents change from outside the editor, for
// example after a reload from disk.
type Observer interface {
	ContentDidChange(p *Project)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p *Project)

func (f ObserverFunc) ContentDidChange(p *Project) { f(p) }

// Project is owned by the UI goroutine.
type Project struct {
	path     string
	contents string
	saved    string
	modTime  time.Time
	observer Observer
}

// Open reads the Podfile at path. A directory resolves to its Podfile. A
// missing file opens as an empty, unsaved project.
func Open(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, PodfileName)
	}
	p := &Project{path: abs}
	data, info, err := readFile(abs)
	switch {
	case err == nil:
		p.contents = normalize(string(data))
		p.saved = p.contents
		p.modTime = info.ModTime()
	case errors.Is(err, os.ErrNotExist):
		logger.Info("opening new podfile", "path", abs)
	default:
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return p, nil
}

func readFile(path string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func (p *Project) Path() string { return p.path }

func (p *Project) Name() string { return filepath.Base(p.path) }

func (p *Project) Contents() string { return p.contents }

// Dirty reports whether the contents differ from what is on disk.
func (p *Project) Dirty() bool { return p.contents != p.saved }

// SetObserver replaces the observer. Nil removes it.
func (p *Project) SetObserver(o Observer) { p.observer = o }

// SetContents records an edit made by the editor. The observer is not
// called since the editor already shows the text.
func (p *Project) SetContents(text string) {
	p.contents = text
}

// Replace swaps in contents produced outside the editor and notifies the
// observer.
func (p *Project) Replace(text string) {
	text = normalize(text)
	if text == p.contents {
		return
	}
	p.contents = text
	p.notify()
}

func (p *Project) notify() {
	if p.observer != nil {
		p.observer.ContentDidChange(p)
	}
}

// Save writes the contents through a temporary file in the same directory.
func (p *Project) Save() error {
	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("save %s: %w", p.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(p.contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", p.path, err)
	}
	if info, err := os.Stat(p.path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpName, 0o644)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", p.path, err)
	}
	p.saved = p.contents
	if info, err := os.Stat(p.path); err == nil {
		p.modTime = info.ModTime()
	}
	logger.Info("podfile saved", "path", p.path, "bytes", len(p.contents))
	return nil
}

// Reload re-reads the file when it changed on disk since the last load or
// save. Unsaved edits are never overwritten. It reports whether the contents
// were replaced.
func (p *Project) Reload() (bool, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.ModTime().After(p.modTime) {
		return false, nil
	}
	if p.Dirty() {
		logger.Warn("podfile changed on disk with unsaved edits", "path", p.path)
		return false, nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, fmt.Errorf("reload %s: %w", p.path, err)
	}
	p.modTime = info.ModTime()
	text := normalize(string(data))
	p.saved = text
	if text == p.contents {
		return false, nil
	}
	p.contents = text
	p.notify()
	return true, nil
}
