package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/codec"
)

const (
	// CurrentName is the blob that names the current manifest.
	CurrentName = "CURRENT"

	// ManifestFormatVersion is the manifest schema version.
	ManifestFormatVersion = 1

	tablesDir    = "tables/"
	manifestsDir = "manifests/"
)

// ErrNoCommit is returned by Open and CurrentManifest when nothing was
// committed yet.
var ErrNoCommit = errors.New("no committed version")

// Manifest describes one committed version of a dataset.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	Version       uint64    `json:"version"`
	CommitID      string    `json:"commit_id"`
	Table         string    `json:"table"`
	Dimension     int       `json:"dimension"`
	Rows          int       `json:"rows"`
	Entries       int       `json:"entries"`
	Bytes         int64     `json:"bytes"`
	Compression   string    `json:"compression"`
	Codec         string    `json:"codec"`
	CreatedAt     time.Time `json:"created_at"`
}

// Commit persists the store as the next version of the dataset in bs.
//
// It writes tables/celldb-<version>-<commit>.cdb and
// manifests/<version>-<commit>.json, then points CURRENT at the manifest. On
// a blobstore.ConditionalPutter the CURRENT write is conditional on the
// version, so of two commits that read the same parent only the first
// succeeds. A commit that fails to update CURRENT removes its own files and
// returns the backend error.
func (s *Store) Commit(ctx context.Context, bs blobstore.BlobStore, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)

	prev, err := CurrentManifest(ctx, bs, opts...)
	if err != nil && !errors.Is(err, ErrNoCommit) {
		return nil, err
	}
	var version uint64 = 1
	if prev != nil {
		version = prev.Version + 1
	}

	commitID := uuid.NewString()[:8]
	tableName := fmt.Sprintf("%scelldb-%06d-%s.cdb", tablesDir, version, commitID)
	manifestName := fmt.Sprintf("%s%06d-%s.json", manifestsDir, version, commitID)

	stats, err := s.Persist(ctx, bs, tableName, opts...)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		FormatVersion: ManifestFormatVersion,
		Version:       version,
		CommitID:      commitID,
		Table:         tableName,
		Dimension:     s.dim,
		Rows:          stats.Rows,
		Entries:       stats.Entries,
		Bytes:         stats.Bytes,
		Compression:   stats.Compression.String(),
		Codec:         o.codec.Name(),
		CreatedAt:     time.Now().UTC(),
	}

	data, err := codec.MarshalIndent(o.codec, m)
	if err != nil {
		_ = bs.Delete(ctx, tableName)
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := bs.Put(ctx, manifestName, data); err != nil {
		_ = bs.Delete(ctx, tableName)
		return nil, fmt.Errorf("write %s: %w", manifestName, err)
	}

	if err := putCurrent(ctx, bs, manifestName, version); err != nil {
		_ = bs.Delete(ctx, manifestName)
		_ = bs.Delete(ctx, tableName)
		return nil, fmt.Errorf("update %s: %w", CurrentName, err)
	}
	return m, nil
}

func putCurrent(ctx context.Context, bs blobstore.BlobStore, manifestName string, version uint64) error {
	if cp, ok := bs.(blobstore.ConditionalPutter); ok {
		return cp.PutIfVersion(ctx, CurrentName, []byte(manifestName), version)
	}
	return bs.Put(ctx, CurrentName, []byte(manifestName))
}

// CurrentManifest returns the manifest CURRENT points at.
func CurrentManifest(ctx context.Context, bs blobstore.BlobStore, opts ...Option) (*Manifest, error) {
	blob, err := bs.Open(ctx, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNoCommit
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", CurrentName, err)
	}
	defer func() { _ = blob.Close() }()

	target, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CurrentName, err)
	}
	return ReadManifest(ctx, bs, strings.TrimSpace(string(target)), opts...)
}

// ReadManifest decodes the manifest blob name.
func ReadManifest(ctx context.Context, bs blobstore.BlobStore, name string, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)

	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}

	var m Manifest
	if err := o.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	if m.FormatVersion != ManifestFormatVersion {
		return nil, fmt.Errorf("manifest %s: unsupported format version %d (expected %d)", name, m.FormatVersion, ManifestFormatVersion)
	}
	if _, ok := codec.ByName(m.Codec); !ok {
		return nil, fmt.Errorf("manifest %s: unknown codec %q", name, m.Codec)
	}
	return &m, nil
}

// Open loads the table named by the current manifest.
func Open(ctx context.Context, bs blobstore.BlobStore, expectedDimension int, opts ...Option) (*Store, *Manifest, error) {
	m, err := CurrentManifest(ctx, bs, opts...)
	if err != nil {
		return nil, nil, err
	}
	if expectedDimension > 0 && m.Dimension != expectedDimension {
		return nil, nil, fmt.Errorf("version %d: %w", m.Version, &DimensionMismatchError{Expected: expectedDimension, Actual: m.Dimension})
	}

	st, err := Load(ctx, bs, m.Table, m.Dimension, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("version %d: %w", m.Version, err)
	}
	return st, m, nil
}

// Versions returns all committed manifests ordered by version.
func Versions(ctx context.Context, bs blobstore.BlobStore, opts ...Option) ([]*Manifest, error) {
	names, err := bs.List(ctx, manifestsDir)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}

	out := make([]*Manifest, 0, len(names))
	for _, name := range names {
		if path.Ext(name) != ".json" {
			continue
		}
		m, err := ReadManifest(ctx, bs, name, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
