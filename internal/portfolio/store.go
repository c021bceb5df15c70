// Package portfolio keeps the user's watch list as one entry per line.
package portfolio

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Store reads and writes the list file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the entries in file order. A missing file is created empty.
func (s *Store) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}

	list := []string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		list = append(list, sc.Text())
	}
	return list, sc.Err()
}

// Save replaces the file with list, one entry per line.
func (s *Store) Save(list []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(list)
}

func (s *Store) write(list []string) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create portfolio dir: %w", err)
		}
	}
	var buf bytes.Buffer
	for _, e := range list {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	return nil
}

// Add appends entry unless it is already listed.
func (s *Store) Add(entry string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	if slices.Contains(list, entry) {
		return list, nil
	}
	list = append(list, entry)
	return list, s.write(list)
}

// Remove deletes every occurrence of entry.
func (s *Store) Remove(entry string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	list = slices.DeleteFunc(list, func(e string) bool { return e == entry })
	return list, s.write(list)
}
