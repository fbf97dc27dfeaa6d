// Package file provides JSON-file persistence for small amounts of
// user state that must survive restarts.
package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"markup-backend/application/ports"
	pkgerrors "markup-backend/pkg/errors"
)

const (
	symbolsFile   = "symbols.json"
	signatureFile = "default_signature.json"
)

// SymbolStore persists the symbol library and the default signature
// name as JSON files under a data directory. Writes go through a temp
// file and rename so a crash mid-write never leaves a torn file.
type SymbolStore struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

var _ ports.SymbolStore = (*SymbolStore)(nil)

// NewSymbolStore creates the store, making the data directory if
// needed.
func NewSymbolStore(dir string, logger *zap.Logger) (*SymbolStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.NewInternal("failed to create data directory", err)
	}
	return &SymbolStore{dir: dir, logger: logger}, nil
}

// LoadSymbols returns the saved symbol library. A missing or corrupt
// file yields an empty library.
func (s *SymbolStore) LoadSymbols() ([]*ports.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, symbolsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pkgerrors.NewInternal("failed to read symbol library", err)
	}

	var symbols []*ports.Symbol
	if err := json.Unmarshal(data, &symbols); err != nil {
		s.logger.Warn("Symbol library file is corrupt, starting empty",
			zap.Error(err),
		)
		return nil, nil
	}
	return symbols, nil
}

// SaveSymbols replaces the saved symbol library.
func (s *SymbolStore) SaveSymbols(symbols []*ports.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(symbols, "", "  ")
	if err != nil {
		return pkgerrors.NewInternal("failed to encode symbol library", err)
	}
	return s.writeAtomic(symbolsFile, data)
}

// LoadDefaultSignature returns the saved default signature symbol name,
// or empty when none is set.
func (s *SymbolStore) LoadDefaultSignature() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, signatureFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", pkgerrors.NewInternal("failed to read default signature", err)
	}

	var record struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("Default signature file is corrupt, clearing",
			zap.Error(err),
		)
		return "", nil
	}
	return record.Name, nil
}

// SaveDefaultSignature stores the default signature symbol name. An
// empty name clears it.
func (s *SymbolStore) SaveDefaultSignature(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(struct {
		Name string `json:"name"`
	}{Name: name})
	if err != nil {
		return pkgerrors.NewInternal("failed to encode default signature", err)
	}
	return s.writeAtomic(signatureFile, data)
}

func (s *SymbolStore) writeAtomic(name string, data []byte) error {
	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return pkgerrors.NewInternal("failed to write "+name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.NewInternal("failed to write "+name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewInternal("failed to write "+name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewInternal("failed to write "+name, err)
	}
	return nil
}
