// Package store provides durable, cached access to user records by
// username. Lookups go through an ordered chain of sources: the
// process-wide memory cache, then a per-user JSON file, then (for the
// single reserved default identity only) a one-time migration from the
// legacy flat token file.
//
// The cache is the source of truth for the lifetime of the process; the
// filesystem is a best-effort persistence substrate that may be
// unavailable in read-only deployments.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/codxp/server/internal/config"
	"github.com/codxp/server/internal/user"
	"github.com/rs/zerolog"
)

// Store loads and saves user records.
type Store struct {
	mu    sync.RWMutex
	cache map[string]user.Record

	dataDir     string
	legacyFiles []string
	defaultUser string
	log         zerolog.Logger
}

// New creates a store for the given storage configuration. The cache
// starts empty and lives for the lifetime of the process.
func New(cfg config.StorageConfig, logger zerolog.Logger) *Store {
	return &Store{
		cache:       make(map[string]user.Record),
		dataDir:     cfg.DataDir,
		legacyFiles: cfg.LegacyFiles,
		defaultUser: cfg.DefaultUsername,
		log:         logger.With().Str("component", "store").Logger(),
	}
}

// Exists reports whether a record for username is cached or present on
// disk. It does not consult the legacy file; legacy data only surfaces
// through Load for the reserved default identity.
func (s *Store) Exists(username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	s.mu.RLock()
	_, cached := s.cache[username]
	s.mu.RUnlock()
	if cached {
		return true, nil
	}

	_, err := os.Stat(s.userPath(username))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking record file for %q: %w", username, err)
}

// lookupFunc is one source in the ordered lookup chain. It returns the
// record and true when the source holds one, or false to let the next
// source try.
type lookupFunc func(username string) (user.Record, bool, error)

// Load resolves username through the lookup chain and returns a
// defensive copy of the record, or ErrNotFound when no source has it.
func (s *Store) Load(username string) (user.Record, error) {
	if username == "" {
		return user.Record{}, ErrNotFound
	}

	chain := []lookupFunc{
		s.lookupCache,
		s.lookupFile,
		s.lookupLegacy,
	}

	for _, lookup := range chain {
		record, found, err := lookup(username)
		if err != nil {
			return user.Record{}, err
		}
		if found {
			return record, nil
		}
	}
	return user.Record{}, ErrNotFound
}

// Save normalizes the record, caches it unconditionally, then attempts
// the durable write. The returned bool reports whether the record
// reached disk; a read-only or inaccessible filesystem downgrades to a
// memory-only save rather than an error, so in-memory state always
// reflects the latest save.
func (s *Store) Save(username string, record user.Record) (bool, error) {
	if username == "" {
		return false, errors.New("username is required")
	}

	normalized := record.Normalized()

	s.mu.Lock()
	s.cache[username] = normalized.Clone()
	s.mu.Unlock()

	path := s.userPath(username)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !isMemoryOnlyErr(err) {
		return false, fmt.Errorf("creating data directory for %q: %w", username, err)
	}

	// The default identity mirrors its flat token counts back to the
	// legacy file so the pre-account tooling keeps working.
	if username == s.defaultUser {
		if err := s.writeLegacyTokens(normalized.Tokens); err != nil {
			return false, err
		}
	}

	payload, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding record for %q: %w", username, err)
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		if isMemoryOnlyErr(err) {
			s.log.Warn().Str("username", username).Err(err).
				Msg("non-persistent environment, changes kept in memory only")
			return false, nil
		}
		return false, fmt.Errorf("writing record file for %q: %w", username, err)
	}
	return true, nil
}

// lookupCache returns the cached record, if any.
func (s *Store) lookupCache(username string) (user.Record, bool, error) {
	s.mu.RLock()
	record, ok := s.cache[username]
	s.mu.RUnlock()
	if !ok {
		return user.Record{}, false, nil
	}
	return record.Clone(), true, nil
}

// lookupFile reads the per-user JSON file, normalizes whatever it holds,
// and caches the result.
func (s *Store) lookupFile(username string) (user.Record, bool, error) {
	contents, err := os.ReadFile(s.userPath(username))
	if errors.Is(err, fs.ErrNotExist) {
		return user.Record{}, false, nil
	}
	if err != nil {
		return user.Record{}, false, fmt.Errorf("reading record file for %q: %w", username, err)
	}

	var raw any
	if err := json.Unmarshal(contents, &raw); err != nil {
		return user.Record{}, false, fmt.Errorf("decoding record file for %q: %w", username, err)
	}

	record := user.Normalize(raw)
	s.mu.Lock()
	s.cache[username] = record.Clone()
	s.mu.Unlock()
	return record, true, nil
}

// lookupLegacy migrates the flat token file into a fresh record. It only
// applies to the reserved default identity; once the record is cached
// (and filed on the next save) the legacy path is never read again.
func (s *Store) lookupLegacy(username string) (user.Record, bool, error) {
	if username != s.defaultUser {
		return user.Record{}, false, nil
	}

	tokens, err := s.readLegacyTokens()
	if err != nil {
		return user.Record{}, false, err
	}

	record := user.NewRecord()
	record.Tokens = tokens
	s.log.Info().Str("username", username).
		Msg("migrated legacy token file into user record")

	s.mu.Lock()
	s.cache[username] = record.Clone()
	s.mu.Unlock()
	return record.Clone(), true, nil
}

func (s *Store) userPath(username string) string {
	return filepath.Join(s.dataDir, username+".json")
}

// isMemoryOnlyErr reports whether a filesystem error is the kind we
// tolerate by keeping the record in memory: read-only mounts, permission
// walls, or filesystems that don't support the operation.
func isMemoryOnlyErr(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EROFS) ||
		errors.Is(err, syscall.ENOSYS)
}
