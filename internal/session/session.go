package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileState stores the state of a single Podfile
type FileState struct {
	SelectionOffset int `json:"selection_offset"`
	SelectionLength int `json:"selection_length,omitempty"`
	Scroll          int `json:"scroll,omitempty"`
}

// Session is everything podedit remembers between runs
type Session struct {
	Files      map[string]FileState `json:"files"`
	FontSize   int                  `json:"font_size,omitempty"`
	ActiveFile string               `json:"active_file,omitempty"`
	LastSaved  time.Time            `json:"last_saved"`
}

// Manager handles session persistence
type Manager struct {
	mu       sync.RWMutex
	session  Session
	path     string
	dirty    bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewManager loads the session from the default state directory and starts
// the autosave loop.
func NewManager() (*Manager, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	m := Open(path)
	go m.autosaveLoop(15 * time.Second)
	return m, nil
}

// Open loads the session stored at path without starting autosave.
// A missing or unreadable file yields an empty session.
func Open(path string) *Manager {
	m := &Manager{
		session:  Session{Files: make(map[string]FileState)},
		path:     path,
		stopChan: make(chan struct{}),
	}
	m.load()
	return m
}

func sessionPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateDir, "podedit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return filepath.Join(dir, "session.json"), nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}
	if session.Files == nil {
		session.Files = make(map[string]FileState)
	}
	m.session = session
}

// Save persists the session to disk if anything changed
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	m.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	m.dirty = false
	return nil
}

// GetFileState returns the saved state for a file
func (m *Manager) GetFileState(absPath string) (FileState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.session.Files[absPath]
	return state, ok
}

// SetFileState updates the state for a file and marks it active
func (m *Manager) SetFileState(absPath string, state FileState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Files[absPath] == state && m.session.ActiveFile == absPath {
		return
	}
	m.session.Files[absPath] = state
	m.session.ActiveFile = absPath
	m.dirty = true
}

// FontSize returns the remembered font size, or 0 if none was saved.
func (m *Manager) FontSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.FontSize
}

func (m *Manager) SetFontSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.FontSize == size {
		return
	}
	m.session.FontSize = size
	m.dirty = true
}

// GetActiveFile returns the last active file
func (m *Manager) GetActiveFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.ActiveFile
}

func (m *Manager) autosaveLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Save()
		case <-m.stopChan:
			return
		}
	}
}

// Stop stops the autosave loop and saves final state
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	return m.Save()
}
