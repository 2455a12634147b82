// Package blob persists model snapshots as checksummed JSON documents in a
// storage.BlobStorage backend.
package blob

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/storage"
	"golang.org/x/crypto/blake2b"
)

const (
	keyPrefix   = "performance"
	contentType = "application/json"
)

// envelope is the on-disk form. Checksum covers the compact JSON of Snapshot.
type envelope struct {
	SchemaVersion string          `json:"schema_version"`
	Checksum      string          `json:"checksum"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

type snapshotRepository struct {
	store      storage.BlobStorage
	metrics    *metrics.Metrics
	constraint *semver.Constraints
}

func NewSnapshotRepository(store storage.BlobStorage, m *metrics.Metrics) (performance.SnapshotRepository, error) {
	c, err := semver.NewConstraint(performance.SnapshotSchemaConstraint)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot schema constraint: %w", err)
	}
	return &snapshotRepository{store: store, metrics: m, constraint: c}, nil
}

// currentKey holds the CurrentModel pointer next to the snapshots.
var currentKey = keyPrefix + "/current.json"

// Key returns the object key of a signature's snapshot.
func Key(sig performance.Signature) string {
	return fmt.Sprintf("%s/%s.json", keyPrefix, sig.String())
}

func (r *snapshotRepository) Save(ctx context.Context, snapshot performance.Snapshot) (err error) {
	defer func() { r.metrics.ObserveSnapshot("save", err) }()

	if snapshot.SchemaVersion == "" {
		snapshot.SchemaVersion = performance.SnapshotSchemaVersion
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	doc, err := json.MarshalIndent(envelope{
		SchemaVersion: snapshot.SchemaVersion,
		Checksum:      checksum(body),
		Snapshot:      body,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}

	if _, err := r.store.Upload(ctx, bytes.NewReader(doc), Key(snapshot.Signature), contentType); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Load(ctx context.Context, sig performance.Signature) (snap performance.Snapshot, err error) {
	defer func() {
		if !errors.Is(err, performance.ErrModelNotFound) {
			r.metrics.ObserveSnapshot("load", err)
		}
	}()

	rc, err := r.store.Download(ctx, Key(sig))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return performance.Snapshot{}, performance.ErrModelNotFound
		}
		return performance.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return performance.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return performance.Snapshot{}, fmt.Errorf("%w: %v", performance.ErrSnapshotChecksum, err)
	}
	if err := r.checkVersion(env.SchemaVersion); err != nil {
		return performance.Snapshot{}, err
	}
	var body bytes.Buffer
	if err := json.Compact(&body, env.Snapshot); err != nil {
		return performance.Snapshot{}, fmt.Errorf("%w: %v", performance.ErrSnapshotChecksum, err)
	}
	if checksum(body.Bytes()) != env.Checksum {
		return performance.Snapshot{}, fmt.Errorf("%w: checksum mismatch for %s", performance.ErrSnapshotChecksum, Key(sig))
	}
	if err := json.Unmarshal(env.Snapshot, &snap); err != nil {
		return performance.Snapshot{}, fmt.Errorf("%w: %v", performance.ErrSnapshotChecksum, err)
	}
	if err := validate(snap, sig); err != nil {
		return performance.Snapshot{}, err
	}
	return snap, nil
}

func (r *snapshotRepository) Delete(ctx context.Context, sig performance.Signature) error {
	if err := r.store.Delete(ctx, Key(sig)); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) SaveCurrent(ctx context.Context, current performance.CurrentModel) (err error) {
	defer func() { r.metrics.ObserveSnapshot("save_current", err) }()

	doc, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode current model: %w", err)
	}
	if _, err := r.store.Upload(ctx, bytes.NewReader(doc), currentKey, contentType); err != nil {
		return fmt.Errorf("failed to store current model: %w", err)
	}
	return nil
}

func (r *snapshotRepository) LoadCurrent(ctx context.Context) (performance.CurrentModel, error) {
	var current performance.CurrentModel

	rc, err := r.store.Download(ctx, currentKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return current, performance.ErrModelNotFound
		}
		return current, fmt.Errorf("failed to read current model: %w", err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(&current); err != nil {
		return current, fmt.Errorf("failed to decode current model: %w", err)
	}
	if current.Signature.NClusters < 1 {
		return current, fmt.Errorf("%w: current model has no cluster count", performance.ErrIncompatibleSnapshot)
	}
	return current, nil
}

func (r *snapshotRepository) ClearCurrent(ctx context.Context) error {
	if err := r.store.Delete(ctx, currentKey); err != nil {
		return fmt.Errorf("failed to clear current model: %w", err)
	}
	return nil
}

func (r *snapshotRepository) checkVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: bad schema version %q", performance.ErrIncompatibleSnapshot, v)
	}
	if !r.constraint.Check(version) {
		return fmt.Errorf("%w: schema %s does not satisfy %s", performance.ErrIncompatibleSnapshot, v, performance.SnapshotSchemaConstraint)
	}
	return nil
}

// validate rejects snapshots trained for another signature or feature layout.
func validate(s performance.Snapshot, sig performance.Signature) error {
	if s.Signature != sig {
		return fmt.Errorf("%w: stored signature %s, requested %s", performance.ErrIncompatibleSnapshot, s.Signature, sig)
	}
	names := performance.FeatureNames()
	if !slices.Equal(s.FeatureNames, names) {
		return fmt.Errorf("%w: feature order differs from the current feature set", performance.ErrIncompatibleSnapshot)
	}
	dim := len(names)
	if len(s.Means) != dim || len(s.Scales) != dim {
		return fmt.Errorf("%w: normalization has wrong dimension", performance.ErrIncompatibleSnapshot)
	}
	if len(s.Centers) != sig.NClusters || len(s.Labels) != sig.NClusters {
		return fmt.Errorf("%w: expected %d centers and labels", performance.ErrIncompatibleSnapshot, sig.NClusters)
	}
	for _, c := range s.Centers {
		if len(c) != dim {
			return fmt.Errorf("%w: center has wrong dimension", performance.ErrIncompatibleSnapshot)
		}
	}
	for _, sc := range s.Scales {
		if sc == 0 {
			return fmt.Errorf("%w: zero normalization scale", performance.ErrIncompatibleSnapshot)
		}
	}
	return nil
}

func checksum(b []byte) string {
	sum := blake2b.Sum256(b)
	return "blake2b-256:" + hex.EncodeToString(sum[:])
}
