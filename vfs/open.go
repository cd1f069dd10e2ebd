package vfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

// Store resolves resource paths per spec.md §6.1 and implements
// resource.Opener, so it can be handed straight to resource.NewManager.
type Store struct {
	root string

	mu       sync.RWMutex
	packs    []*Pack // ordered; last-added wins on a name collision
	embedded *Pack
}

// NewStore constructs a Store rooted at rootDir and registers every
// *.resources pack found by a directory scan, in sorted order (spec.md
// §6.5's "initial list of .resources packs discovered by a directory
// scan").
func NewStore(rootDir string) (*Store, error) {
	s := &Store{root: rootDir}
	matches, err := filepath.Glob(filepath.Join(rootDir, "*.resources"))
	if err != nil {
		return nil, fmt.Errorf("vfs: scan %s: %w", rootDir, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if err := s.AddPack(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddPack opens and registers an additional pack. It is placed last, so
// it wins over every earlier pack on a name collision.
func (s *Store) AddPack(path string) error {
	p, err := OpenPack(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.packs = append(s.packs, p)
	s.mu.Unlock()
	return nil
}

// SetEmbedded installs the archive searched for /Embedded/ paths.
func (s *Store) SetEmbedded(path string) error {
	p, err := OpenPack(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.embedded
	s.embedded = p
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Open resolves and opens path, implementing resource.Opener. Unknown
// prefixes and unresolvable paths report resource.ErrPathUnresolved.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	prefix, rel := Split(path)
	switch prefix {
	case PrefixFS:
		f, err := os.Open(rel)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", resource.ErrPathUnresolved, path)
		}
		return f, nil

	case PrefixEmbedded:
		s.mu.RLock()
		embedded := s.embedded
		s.mu.RUnlock()
		if embedded == nil || !embedded.Locate(rel) {
			return nil, fmt.Errorf("%w: %s", resource.ErrPathUnresolved, path)
		}
		return embedded.Open(rel)

	case PrefixRoot:
		if f, err := os.Open(filepath.Join(s.root, rel)); err == nil {
			return f, nil
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		for i := len(s.packs) - 1; i >= 0; i-- {
			if s.packs[i].Locate(rel) {
				return s.packs[i].Open(rel)
			}
		}
		return nil, fmt.Errorf("%w: %s", resource.ErrPathUnresolved, path)

	default:
		return nil, fmt.Errorf("%w: %s", resource.ErrPathUnresolved, path)
	}
}

// Close releases every registered pack and the embedded archive, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, p := range s.packs {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.embedded != nil {
		if err := s.embedded.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
