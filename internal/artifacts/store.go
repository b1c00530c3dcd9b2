// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package artifacts persists trained model snapshots in BadgerDB so a
// restart can serve recommendations without retraining. Snapshots are
// gob-encoded, gzip-compressed, and checksummed; a "latest" pointer tracks
// the newest version and older versions are pruned past the retention limit.
package artifacts

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/campuslens/campuslens/internal/metrics"
	"github.com/campuslens/campuslens/internal/recommend"
)

// Key layout in BadgerDB.
const (
	modelKeyPrefix = "model:"
	latestKey      = "model:latest"
)

// ErrNoArtifact is returned by LoadLatest when no snapshot has been saved.
var ErrNoArtifact = errors.New("artifacts: no model snapshot stored")

// Meta describes a stored snapshot, kept separately from the payload so
// listings never decompress models.
type Meta struct {
	Version        int       `json:"version"`
	TrainedAt      time.Time `json:"trained_at"`
	Checksum       string    `json:"checksum"`
	CompressedSize int       `json:"compressed_size"`
	Courses        int       `json:"courses"`
	Students       int       `json:"students"`
}

// Store is a BadgerDB-backed model artifact store.
type Store struct {
	db           *badger.DB
	keepVersions int
}

// Open opens or creates the artifact store at the given directory.
func Open(path string, keepVersions int) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store at %s: %w", path, err)
	}
	if keepVersions < 1 {
		keepVersions = 1
	}
	return &Store{db: db, keepVersions: keepVersions}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveModel persists a trained snapshot and advances the latest pointer.
// Older versions beyond the retention limit are deleted.
func (s *Store) SaveModel(model *recommend.Model) (err error) {
	defer func() { metrics.RecordArtifactOperation("save", err) }()

	payload, checksum, err := encodeModel(model)
	if err != nil {
		return err
	}

	meta := Meta{
		Version:        model.Version,
		TrainedAt:      model.TrainedAt,
		Checksum:       checksum,
		CompressedSize: len(payload),
		Courses:        len(model.Courses),
		Students:       len(model.Students),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataKey(model.Version)), payload); err != nil {
			return fmt.Errorf("failed to store snapshot payload: %w", err)
		}
		if err := txn.Set([]byte(metaKey(model.Version)), metaBytes); err != nil {
			return fmt.Errorf("failed to store snapshot metadata: %w", err)
		}
		if err := txn.Set([]byte(latestKey), []byte(strconv.Itoa(model.Version))); err != nil {
			return fmt.Errorf("failed to update latest pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.ArtifactSizeBytes.Set(float64(len(payload)))
	return s.prune(model.Version)
}

// LoadLatest decodes the newest stored snapshot. The checksum is verified
// before decoding and the model's lookup tables are rebuilt.
func (s *Store) LoadLatest() (model *recommend.Model, err error) {
	defer func() {
		if !errors.Is(err, ErrNoArtifact) {
			metrics.RecordArtifactOperation("load", err)
		}
	}()

	var payload []byte
	var meta Meta
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoArtifact
		}
		if err != nil {
			return fmt.Errorf("failed to read latest pointer: %w", err)
		}
		var version int
		if err := item.Value(func(val []byte) error {
			version, err = strconv.Atoi(string(val))
			return err
		}); err != nil {
			return fmt.Errorf("invalid latest pointer: %w", err)
		}

		item, err = txn.Get([]byte(metaKey(version)))
		if err != nil {
			return fmt.Errorf("failed to read snapshot metadata v%d: %w", version, err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("invalid snapshot metadata v%d: %w", version, err)
		}

		item, err = txn.Get([]byte(dataKey(version)))
		if err != nil {
			return fmt.Errorf("failed to read snapshot payload v%d: %w", version, err)
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(payload)
	if got := hex.EncodeToString(sum[:]); got != meta.Checksum {
		return nil, fmt.Errorf("snapshot v%d checksum mismatch: stored %s, computed %s",
			meta.Version, meta.Checksum, got)
	}

	model, err = decodeModel(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot v%d: %w", meta.Version, err)
	}
	return model, nil
}

// LatestMeta returns metadata for the newest stored snapshot without
// decoding the payload.
func (s *Store) LatestMeta() (*Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoArtifact
		}
		if err != nil {
			return err
		}
		var version int
		if err := item.Value(func(val []byte) error {
			version, err = strconv.Atoi(string(val))
			return err
		}); err != nil {
			return err
		}
		item, err = txn.Get([]byte(metaKey(version)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// prune deletes snapshot versions older than the retention window ending at
// latest.
func (s *Store) prune(latest int) error {
	cutoff := latest - s.keepVersions
	if cutoff < 1 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(modelKeyPrefix)})
		defer it.Close()

		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			version, ok := versionFromKey(key)
			if ok && version <= cutoff {
				stale = append(stale, append([]byte(nil), it.Item().Key()...))
			}
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to prune %s: %w", key, err)
			}
		}
		return nil
	})
}

func dataKey(version int) string {
	return fmt.Sprintf("%s%d:data", modelKeyPrefix, version)
}

func metaKey(version int) string {
	return fmt.Sprintf("%s%d:meta", modelKeyPrefix, version)
}

// versionFromKey parses "model:<n>:data" or "model:<n>:meta". The latest
// pointer key has no numeric component and is never pruned.
func versionFromKey(key string) (int, bool) {
	rest := strings.TrimPrefix(key, modelKeyPrefix)
	idx := strings.IndexByte(rest, ':')
	if idx < 0 {
		return 0, false
	}
	version, err := strconv.Atoi(rest[:idx])
	if err != nil {
		return 0, false
	}
	return version, true
}

func encodeModel(model *recommend.Model) ([]byte, string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(model); err != nil {
		return nil, "", fmt.Errorf("failed to gob-encode model: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to compress model: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

func decodeModel(payload []byte) (*recommend.Model, error) {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var model recommend.Model
	if err := gob.NewDecoder(gz).Decode(&model); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	model.Reindex()
	return &model, nil
}
