package manager

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Persistent connection store.
//
// Connections live in a JSON file under the user's config dir:
//
//	~/.config/sshman/connections.json
//
// On systems honoring XDG, $XDG_CONFIG_HOME is used instead of ~/.config.
// The in-memory copy is authoritative for the session: it overwrites the file
// on every mutation and never re-reads it behind the caller's back.

const storeFormatVersion = "1.0"

// storeFile is the on-disk JSON structure. Keep fields stable for backward
// compatibility.
type storeFile struct {
	Version     string       `json:"version"`
	Connections []Connection `json:"connections"`
}

// MergeReport summarizes an import merge.
type MergeReport struct {
	// Inserted lists the names added to the store, in candidate order.
	Inserted []string
	// Skipped lists candidate names that collided with an existing record
	// (or with an earlier candidate) and were discarded.
	Skipped []string
	// Rejected lists candidates that failed validation.
	Rejected []string
}

// Store owns the canonical, ordered collection of connections.
// It is not safe for concurrent use.
type Store struct {
	path    string
	records []Connection
}

// NewStore returns an empty store bound to path. If path is empty, the
// default path is used. Call Load to read persisted state.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultStorePath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{path: ExpandPath(path), records: []Connection{}}, nil
}

// OpenStore is NewStore followed by Load.
func OpenStore(path string) (*Store, error) {
	s, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Load reads persisted state into memory. A missing or empty file yields an
// empty collection. Unparseable or invalid content fails with a
// *CorruptStoreError and leaves both the file and the in-memory collection
// untouched.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.records = []Connection{}
			return nil
		}
		return fmt.Errorf("read store %s: %w", s.path, err)
	}
	records, err := decodeStore(data)
	if err != nil {
		return &CorruptStoreError{Path: s.path, Cause: err}
	}
	s.records = records
	return nil
}

func decodeStore(data []byte) ([]Connection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Connection{}, nil
	}
	var f storeFile
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse json: trailing data after document")
	}

	out := make([]Connection, 0, len(f.Connections))
	seen := make(map[string]int, len(f.Connections))
	for i, c := range f.Connections {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
		if prev, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("connections[%d]: duplicate name %q (first at connections[%d])", i, c.Name, prev)
		}
		seen[c.Name] = i
		out = append(out, c)
	}
	return out, nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []Connection {
	return cloneConnections(s.records)
}

// Sorted returns a copy of the collection ordered by name. Display ordering
// only; the stored order is unchanged.
func (s *Store) Sorted() []Connection {
	out := cloneConnections(s.records)
	SortByName(out)
	return out
}

// Len reports the number of stored connections.
func (s *Store) Len() int { return len(s.records) }

// Get returns the record named name.
func (s *Store) Get(name string) (Connection, error) {
	i := s.indexOf(name)
	if i < 0 {
		return Connection{}, &NotFoundError{Name: name}
	}
	return s.records[i].Clone(), nil
}

// Add inserts rec and persists. It fails with *DuplicateNameError if the
// name is taken.
func (s *Store) Add(rec Connection) error {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return &InvalidRecordError{Cause: err}
	}
	if s.indexOf(rec.Name) >= 0 {
		return &DuplicateNameError{Name: rec.Name}
	}
	next := append(cloneConnections(s.records), rec.Clone())
	return s.commit(next)
}

// Update replaces the record named name in place, preserving its position,
// and persists. If rec carries a different name the record is renamed, which
// fails with *DuplicateNameError when the new name is taken.
func (s *Store) Update(name string, rec Connection) error {
	i := s.indexOf(name)
	if i < 0 {
		return &NotFoundError{Name: name}
	}
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return &InvalidRecordError{Cause: err}
	}
	if rec.Name != name {
		if j := s.indexOf(rec.Name); j >= 0 {
			return &DuplicateNameError{Name: rec.Name}
		}
	}
	next := cloneConnections(s.records)
	next[i] = rec.Clone()
	return s.commit(next)
}

// Delete removes the record named name and persists.
func (s *Store) Delete(name string) error {
	i := s.indexOf(name)
	if i < 0 {
		return &NotFoundError{Name: name}
	}
	next := make([]Connection, 0, len(s.records)-1)
	for j, c := range s.records {
		if j != i {
			next = append(next, c.Clone())
		}
	}
	return s.commit(next)
}

// Merge reconciles import candidates with the store. Existing records always
// win: a candidate whose name is already present is discarded whole, never
// merged field by field. Within one call the first candidate for a name wins.
//
// The merge is all-or-nothing: if persisting fails, the in-memory collection
// and the file are exactly as they were before the call.
func (s *Store) Merge(candidates []Connection) (MergeReport, error) {
	var rep MergeReport
	next := cloneConnections(s.records)
	taken := make(map[string]struct{}, len(next)+len(candidates))
	for _, c := range next {
		taken[c.Name] = struct{}{}
	}

	for _, c := range candidates {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			rep.Rejected = append(rep.Rejected, c.Name)
			continue
		}
		if _, ok := taken[c.Name]; ok {
			rep.Skipped = append(rep.Skipped, c.Name)
			continue
		}
		taken[c.Name] = struct{}{}
		next = append(next, c.Clone())
		rep.Inserted = append(rep.Inserted, c.Name)
	}

	if len(rep.Inserted) == 0 {
		return rep, nil
	}
	if err := s.commit(next); err != nil {
		return MergeReport{}, err
	}
	return rep, nil
}

// Save writes the current in-memory collection to disk.
func (s *Store) Save() error {
	return writeStoreAtomic(s.path, s.records)
}

// commit persists next and only then swaps it in.
func (s *Store) commit(next []Connection) error {
	if err := writeStoreAtomic(s.path, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *Store) indexOf(name string) int {
	for i := range s.records {
		if s.records[i].Name == name {
			return i
		}
	}
	return -1
}

// writeStoreAtomic writes the JSON store via a temp file in the same
// directory, fsync and rename, so a reader sees either the old or the new
// file and never a truncated one. The parent directory is created with 0700.
func writeStoreAtomic(path string, records []Connection) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}

	if records == nil {
		records = []Connection{}
	}
	payload, err := json.MarshalIndent(storeFile{Version: storeFormatVersion, Connections: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	payload = append(payload, '\n')

	return writeFileAtomic(path, payload)
}

// writeFileAtomic replaces path with payload via a synced 0600 temp file in
// the same directory and a rename.
func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename to %s: %w", path, err)
	}
	return nil
}

// BackupCorrupt moves an unreadable store aside to
// <path>.corrupt-<timestamp> and returns the backup path. The caller decides
// when this is appropriate; Load never does it on its own.
func BackupCorrupt(path string) (string, error) {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup store %s: %w", path, err)
	}
	backup := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405Z")
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backup store %s: %w", path, err)
	}
	return backup, nil
}

// SortByName orders records lexicographically by name, in place.
func SortByName(records []Connection) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}
