package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(k int) performance.Snapshot {
	dim := len(performance.FeatureNames())
	centers := make([][]float64, k)
	for i := range centers {
		centers[i] = make([]float64, dim)
		centers[i][0] = float64(i)
	}
	ones := make([]float64, dim)
	for i := range ones {
		ones[i] = 1
	}
	labels := make([]string, k)
	for i := range labels {
		labels[i] = "tier"
	}
	return performance.Snapshot{
		SchemaVersion: performance.SnapshotSchemaVersion,
		ID:            "snap-1",
		Signature:     performance.NewSignature(k),
		FeatureNames:  performance.FeatureNames(),
		Means:         make([]float64, dim),
		Scales:        ones,
		Centers:       centers,
		Labels:        labels,
		Silhouette:    0.42,
		TrainingSize:  10,
		TrainedAt:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newRepo(t *testing.T) (performance.SnapshotRepository, storage.BlobStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo, err := NewSnapshotRepository(store, nil)
	require.NoError(t, err)
	return repo, store
}

func rewrite(t *testing.T, store storage.BlobStorage, key string, mutate func(*envelope)) {
	t.Helper()
	rc, err := store.Download(context.Background(), key)
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	mutate(&env)
	out, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = store.Upload(context.Background(), bytes.NewReader(out), key, contentType)
	require.NoError(t, err)
}

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	repo, _ := newRepo(t)
	snap := testSnapshot(3)

	require.NoError(t, repo.Save(context.Background(), snap))
	got, err := repo.Load(context.Background(), snap.Signature)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSnapshotRepository_BoltBackend(t *testing.T) {
	store, err := storage.NewBoltStorage(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()
	repo, err := NewSnapshotRepository(store, nil)
	require.NoError(t, err)

	snap := testSnapshot(2)
	require.NoError(t, repo.Save(context.Background(), snap))
	got, err := repo.Load(context.Background(), snap.Signature)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	require.NoError(t, repo.Delete(context.Background(), snap.Signature))
	_, err = repo.Load(context.Background(), snap.Signature)
	assert.ErrorIs(t, err, performance.ErrModelNotFound)
}

func TestSnapshotRepository_NotFound(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.Load(context.Background(), performance.NewSignature(4))
	assert.ErrorIs(t, err, performance.ErrModelNotFound)
}

func TestSnapshotRepository_DetectsTampering(t *testing.T) {
	repo, store := newRepo(t)
	snap := testSnapshot(3)
	require.NoError(t, repo.Save(context.Background(), snap))

	rewrite(t, store, Key(snap.Signature), func(env *envelope) {
		env.Snapshot = bytes.Replace(env.Snapshot, []byte(`"snap-1"`), []byte(`"snap-2"`), 1)
	})

	_, err := repo.Load(context.Background(), snap.Signature)
	assert.ErrorIs(t, err, performance.ErrSnapshotChecksum)
}

func TestSnapshotRepository_RejectsIncompatibleSchema(t *testing.T) {
	for _, version := range []string{"2.0.0", "0.9.0", "banana"} {
		t.Run(version, func(t *testing.T) {
			repo, store := newRepo(t)
			snap := testSnapshot(3)
			require.NoError(t, repo.Save(context.Background(), snap))

			rewrite(t, store, Key(snap.Signature), func(env *envelope) {
				env.SchemaVersion = version
			})

			_, err := repo.Load(context.Background(), snap.Signature)
			assert.ErrorIs(t, err, performance.ErrIncompatibleSnapshot)
		})
	}
}

func TestSnapshotRepository_AcceptsMinorSchemaBump(t *testing.T) {
	repo, store := newRepo(t)
	snap := testSnapshot(3)
	require.NoError(t, repo.Save(context.Background(), snap))

	rewrite(t, store, Key(snap.Signature), func(env *envelope) {
		env.SchemaVersion = "1.2.0"
	})

	_, err := repo.Load(context.Background(), snap.Signature)
	assert.NoError(t, err)
}

func TestSnapshotRepository_RejectsFeatureOrderChange(t *testing.T) {
	repo, _ := newRepo(t)
	snap := testSnapshot(3)
	snap.FeatureNames = append([]string{}, snap.FeatureNames...)
	snap.FeatureNames[0], snap.FeatureNames[1] = snap.FeatureNames[1], snap.FeatureNames[0]
	require.NoError(t, repo.Save(context.Background(), snap))

	_, err := repo.Load(context.Background(), snap.Signature)
	assert.ErrorIs(t, err, performance.ErrIncompatibleSnapshot)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "performance/k3-features-v1.json", Key(performance.NewSignature(3)))
}

func TestSnapshotRepository_CurrentModel(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_, err := repo.LoadCurrent(ctx)
	assert.ErrorIs(t, err, performance.ErrModelNotFound)

	current := performance.CurrentModel{
		Signature:  performance.NewSignature(4),
		SnapshotID: "snap-4",
		TrainedAt:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveCurrent(ctx, current))

	got, err := repo.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, current, got)

	ok, err := store.Exists(ctx, "performance/current.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.ClearCurrent(ctx))
	require.NoError(t, repo.ClearCurrent(ctx))
	_, err = repo.LoadCurrent(ctx)
	assert.ErrorIs(t, err, performance.ErrModelNotFound)
}

func TestSnapshotRepository_CurrentModelRejectsEmptySignature(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	_, err := store.Upload(ctx, bytes.NewReader([]byte(`{"snapshot_id":"x"}`)), "performance/current.json", contentType)
	require.NoError(t, err)

	_, err = repo.LoadCurrent(ctx)
	assert.ErrorIs(t, err, performance.ErrIncompatibleSnapshot)
}

func TestSnapshotRepository_DeleteMissingIsNoop(t *testing.T) {
	repo, _ := newRepo(t)
	assert.NoError(t, repo.Delete(context.Background(), performance.NewSignature(5)))
}
