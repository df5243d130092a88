// Package archive stores assembled datasets in a single SQLite file. Each
// dataset is written as a group of four positionally aligned arrays (images,
// labels, segs and images_source) keyed by a group prefix, so one file can
// carry the train, validation and test splits side by side.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/oct.dataset/internal/version"
)

// Group prefixes used by the dataset generators.
const (
	PrefixNone       = ""
	PrefixTrain      = "train_"
	PrefixValidation = "val_"
	PrefixTest       = "test_"
)

// Metadata keys written by Create.
const (
	MetaArchiveID = "archive_id"
	MetaVersion   = "version"
	MetaGitSHA    = "git_sha"
	MetaCreatedAt = "created_at"
	MetaFormat    = "format"
)

// ValidPrefix reports whether p is one of the known group prefixes.
func ValidPrefix(p string) bool {
	switch p {
	case PrefixNone, PrefixTrain, PrefixValidation, PrefixTest:
		return true
	}
	return false
}

// GroupNames returns the four array names stored under prefix.
func GroupNames(prefix string) []string {
	return []string{prefix + "images", prefix + "labels", prefix + "segs", prefix + "images_source"}
}

// Archive is an open dataset archive.
type Archive struct {
	db   *sql.DB
	path string
}

func open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	a := &Archive{db: db, path: path}
	if err := a.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// Create starts a fresh archive at path, replacing any existing file, and
// records the archive id and build information.
func Create(path string) (*Archive, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove existing archive: %w", err)
	}
	a, err := open(path)
	if err != nil {
		return nil, err
	}
	meta := map[string]string{
		MetaArchiveID: uuid.NewString(),
		MetaVersion:   version.Version,
		MetaGitSHA:    version.GitSHA,
		MetaCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := a.SetMeta(k, v); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Open opens an existing archive for reading.
func Open(path string) (*Archive, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return open(path)
}

// Path returns the file the archive lives in.
func (a *Archive) Path() string { return a.path }

// Close releases the database handle.
func (a *Archive) Close() error { return a.db.Close() }

// SetMeta stores a metadata value, replacing any previous one.
func (a *Archive) SetMeta(key, value string) error {
	_, err := a.db.Exec(`INSERT INTO archive_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Meta returns a metadata value, or "" when the key is unset.
func (a *Archive) Meta(key string) (string, error) {
	var v string
	err := a.db.QueryRow(`SELECT value FROM archive_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query meta %s: %w", key, err)
	}
	return v, nil
}

// ID returns the archive id assigned by Create.
func (a *Archive) ID() (string, error) {
	return a.Meta(MetaArchiveID)
}
