package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Persistence is the local store: one JSON file per collection under a data
// directory. Saves are write-through and atomic; loads that fail for any
// reason are reported as absence so the caller can fall back to defaults.
type Persistence struct {
	DataDir string
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewPersistence initializes a persistence handler rooted at dir.
func NewPersistence(dir string, log zerolog.Logger) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Persistence{DataDir: dir, log: log}, nil
}

// SaveCollection replaces the persisted value for one collection.
// The value is written to a temporary file first and renamed into place, so
// a crash leaves either the old value or the new one, never a torn file.
func (p *Persistence) SaveCollection(name string, value json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := filepath.Join(p.DataDir, fmt.Sprintf("%s.json", name))
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, value, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadCollection reads the persisted value for one collection. The second
// return is false when no usable value exists; unreadable or invalid files
// count as absent rather than as errors.
func (p *Persistence) LoadCollection(name string) (json.RawMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, err := os.ReadFile(filepath.Join(p.DataDir, fmt.Sprintf("%s.json", name)))
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn().Err(err).Str("collection", name).Msg("could not read collection file")
		}
		return nil, false
	}
	if !json.Valid(content) {
		p.log.Warn().Str("collection", name).Msg("collection file is not valid JSON, treating as absent")
		return nil, false
	}
	return content, true
}

// LoadAll returns every persisted collection found in the data directory.
func (p *Persistence) LoadAll() map[string]json.RawMessage {
	all := make(map[string]json.RawMessage)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		p.log.Warn().Err(err).Msg("could not list data directory")
		return all
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(file.Name(), ".json")
		if value, ok := p.LoadCollection(name); ok {
			all[name] = value
		}
	}
	return all
}
