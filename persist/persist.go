// Package persist provides a reference, non-authoritative disk-backed
// implementation of the chainio.SharePersister collaborator interface.
// It adapts the teacher's db package KeyValueWriter/Batch shape
// (write-only staging area, flushed in one pass, each file written via
// temp-file-then-rename; a failed flush can leave earlier files of the
// batch written) to a plain directory
// of files instead of a full KeyValueStore, since the share chain only
// ever needs Put-then-flush, never range scans or snapshots.
package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/p2pool-go/sharechain/chainio"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/sharechain"
)

// keyValueWriter mirrors the teacher's db.KeyValueWriter: a minimal
// write-only surface any backing store must provide.
type keyValueWriter interface {
	Put(key []byte, value []byte) error
}

// batch stages writes in memory and flushes them together, like the
// teacher's db.Batch, but without delete/range-delete: the share store
// is append-only from this package's point of view.
type batch interface {
	keyValueWriter
	Size() int
	Write() error
	Reset()
}

// dirStore is a KeyValueWriter backed by one file per key under dir.
type dirStore struct {
	dir string
}

func newDirStore(dir string) (*dirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create data dir: %w", err)
	}
	return &dirStore{dir: dir}, nil
}

func (d *dirStore) Put(key, value []byte) error {
	path := filepath.Join(d.dir, fmt.Sprintf("%x", key))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// fileBatch accumulates puts in memory and flushes them to a dirStore
// on Write, the same stage-then-flush shape as the teacher's Batch.
type fileBatch struct {
	store *dirStore
	keys  [][]byte
	vals  [][]byte
	size  int
}

func (b *fileBatch) Put(key, value []byte) error {
	b.keys = append(b.keys, key)
	b.vals = append(b.vals, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *fileBatch) Size() int { return b.size }

func (b *fileBatch) Write() error {
	for i := range b.keys {
		if err := b.store.Put(b.keys[i], b.vals[i]); err != nil {
			return err
		}
	}
	b.Reset()
	return nil
}

func (b *fileBatch) Reset() {
	b.keys = nil
	b.vals = nil
	b.size = 0
}

// Store implements chainio.SharePersister on top of a share directory.
// It is not the share chain's source of truth — ChainStore holds the
// authoritative in-memory chain — only a durable record for process
// restarts to optionally replay.
type Store struct {
	store   *dirStore
	encoder chainio.ShareConstructor
}

// New builds a Store rooted at dataDir/shares.
func New(dataDir string, encoder chainio.ShareConstructor) (*Store, error) {
	ds, err := newDirStore(filepath.Join(dataDir, "shares"))
	if err != nil {
		return nil, err
	}
	return &Store{store: ds, encoder: encoder}, nil
}

// SaveShares implements chainio.SharePersister. Persistence failures
// are logged, never returned, matching spec.md's treatment of the
// persister as a fire-and-forget external collaborator.
func (s *Store) SaveShares(shares []sharechain.Share) {
	batch := &fileBatch{store: s.store}
	for _, share := range shares {
		hash := share.Hash()
		_, contents, err := s.encoder.EncodeShare(share)
		if err != nil {
			log.Chain.Warnf("persist: encode share %s: %v", hash, err)
			continue
		}
		if err := batch.Put(hash.CloneBytes(), contents); err != nil {
			log.Chain.Warnf("persist: stage share %s: %v", hash, err)
		}
	}
	if err := batch.Write(); err != nil {
		log.Chain.Errorf("persist: flush batch: %v", err)
	}
}
