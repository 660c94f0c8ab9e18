package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
	"github.com/BANCS-Norway/session-coordinator/internal/scope"
)

// DefaultBasePath is where the local adapter stores scope files when the
// configuration does not say otherwise.
const DefaultBasePath = ".claude/session-state"

const (
	// fileSeparator replaces both scope delimiters (':' and '/') in
	// filenames. Two underscores cannot appear in either delimiter, but
	// because both delimiters collapse to the same separator the mapping
	// is lossy; see FilenameToScope.
	fileSeparator = "__"
	fileExt       = ".json"
)

// LocalAdapter stores each scope as a JSON file in a root directory.
// It is intended for single-machine coordination: one full
// read-modify-write per mutation, last-writer-wins at the file level,
// no cross-process locking. The internal mutex only serializes access
// within one process.
type LocalAdapter struct {
	root string
	mu   sync.RWMutex
}

// NewLocalAdapter creates a LocalAdapter rooted at basePath, creating the
// directory if needed. An empty basePath uses DefaultBasePath.
func NewLocalAdapter(basePath string) (*LocalAdapter, error) {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpCreateDir, "failed to resolve storage directory", err).WithPath(basePath)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.NewStorageError(errors.OpCreateDir, "failed to create storage directory", err).WithPath(root)
	}
	return &LocalAdapter{root: root}, nil
}

// Root returns the resolved storage directory.
func (a *LocalAdapter) Root() string {
	return a.root
}

// ScopeToFilename converts a scope identifier to its on-disk filename by
// replacing ':' and '/' with the file separator and appending the JSON
// extension.
func ScopeToFilename(s string) string {
	safe := strings.ReplaceAll(s, ":", fileSeparator)
	safe = strings.ReplaceAll(safe, "/", fileSeparator)
	return safe + fileExt
}

// FilenameToScope reconstructs a scope identifier from a filename. The
// filename mapping collapses ':' and '/' to the same separator, so this
// reconstruction is a heuristic, not a true inverse: it assumes the
// canonical convention machine:owner/repo:category:id[...]. Filenames with
// at least four parts are rebuilt as machine, owner/repo, then the rest
// joined with ':'. Shorter names fall back to naive colon joining. Only
// scopes following the canonical convention round-trip correctly through
// ListScopes; the ambiguity is part of the on-disk format and changing the
// encoding would break compatibility with existing stores.
func FilenameToScope(name string) string {
	name = strings.TrimSuffix(name, fileExt)
	parts := strings.Split(name, fileSeparator)
	if len(parts) >= 4 {
		machine := parts[0]
		owner := parts[1]
		repo := parts[2]
		rest := strings.Join(parts[3:], ":")
		return fmt.Sprintf("%s:%s/%s:%s", machine, owner, repo, rest)
	}
	return strings.Join(parts, ":")
}

// scopePath returns the file path for a scope.
func (a *LocalAdapter) scopePath(s string) string {
	return filepath.Join(a.root, ScopeToFilename(s))
}

// loadRecord reads a scope record from disk. A missing file yields an
// empty record, not an error.
func (a *LocalAdapter) loadRecord(s string) (Record, error) {
	path := a.scopePath(s)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRecord(), nil
		}
		return Record{}, errors.NewStorageError(errors.OpRead, "failed to read scope file", err).WithPath(path).WithScope(s)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.NewStorageError(errors.OpRead, "invalid JSON in scope file",
			fmt.Errorf("%w: %v", errors.ErrCorruptRecord, err)).WithPath(path).WithScope(s)
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}
	if rec.Metadata == nil {
		rec.Metadata = make(map[string]EntryMeta)
	}
	return rec, nil
}

// saveRecord writes a scope record to disk atomically.
func (a *LocalAdapter) saveRecord(s string, rec Record) error {
	path := a.scopePath(s)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.NewStorageError(errors.OpWrite, "failed to encode scope record", err).WithPath(path).WithScope(s)
	}
	if err := atomicWriteFile(path, data, 0644); err != nil {
		return errors.NewStorageError(errors.OpWrite, "failed to write scope file", err).WithPath(path).WithScope(s)
	}
	return nil
}

// Store upserts value under key in scope. The value is normalized through
// JSON before the record is touched, so an unserializable value fails
// without disturbing the prior stored value.
func (a *LocalAdapter) Store(ctx context.Context, s, key string, value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	encoded, err := json.Marshal(value)
	if err != nil {
		return errors.NewStorageError(errors.OpWrite, "cannot store value",
			fmt.Errorf("%w: %v", errors.ErrValueNotSerializable, err)).WithScope(s).WithKey(key)
	}
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return errors.NewStorageError(errors.OpWrite, "cannot store value",
			fmt.Errorf("%w: %v", errors.ErrValueNotSerializable, err)).WithScope(s).WithKey(key)
	}

	rec, err := a.loadRecord(s)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec.Data[key] = normalized

	meta, exists := rec.Metadata[key]
	if !exists {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	rec.Metadata[key] = meta

	return a.saveRecord(s, rec)
}

// Retrieve returns the stored value for key in scope. The second return
// distinguishes a stored null from an absent key or scope.
func (a *LocalAdapter) Retrieve(ctx context.Context, s, key string) (any, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, err := a.loadRecord(s)
	if err != nil {
		return nil, false, err
	}
	value, found := rec.Data[key]
	return value, found, nil
}

// Delete removes one entry from a scope. Deleting the last entry removes
// the scope file itself, so empty records never linger on disk.
func (a *LocalAdapter) Delete(ctx context.Context, s, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.loadRecord(s)
	if err != nil {
		return false, err
	}
	if _, found := rec.Data[key]; !found {
		return false, nil
	}

	delete(rec.Data, key)
	delete(rec.Metadata, key)

	if len(rec.Data) == 0 {
		path := a.scopePath(s)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, errors.NewStorageError(errors.OpDelete, "failed to delete scope file", err).WithPath(path).WithScope(s)
		}
		return true, nil
	}

	if err := a.saveRecord(s, rec); err != nil {
		return false, err
	}
	return true, nil
}

// ListKeys returns all keys in scope, or an empty slice if the scope does
// not exist. Keys are returned sorted for determinism, but ordering is not
// part of the contract.
func (a *LocalAdapter) ListKeys(ctx context.Context, s string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, err := a.loadRecord(s)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(rec.Data))
	for k := range rec.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListScopes returns all scope identifiers, sorted, optionally filtered by
// a glob pattern. Scope names are reconstructed from filenames via
// FilenameToScope, with the documented canonical-convention caveat.
func (a *LocalAdapter) ListScopes(ctx context.Context, pattern string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpList, "failed to list scope files", err).WithPath(a.root)
	}

	scopes := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		s := FilenameToScope(entry.Name())
		if pattern != "" && !scope.Match(pattern, s) {
			continue
		}
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes, nil
}

// DeleteScope removes an entire scope record.
func (a *LocalAdapter) DeleteScope(ctx context.Context, s string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.scopePath(s)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewStorageError(errors.OpDelete, "failed to check scope file", err).WithPath(path).WithScope(s)
	}
	if err := os.Remove(path); err != nil {
		return false, errors.NewStorageError(errors.OpDelete, "failed to delete scope file", err).WithPath(path).WithScope(s)
	}
	return true, nil
}

// Close releases adapter resources. The local adapter holds no persistent
// connections or handles, so this is a no-op; it is safe to call any
// number of times.
func (a *LocalAdapter) Close() error {
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a
// temporary file first, then renaming. This ensures the target file is
// never in a partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
