package performance

import "context"

// SnapshotRepository persists trained models keyed by signature. Save must
// replace the whole snapshot atomically; Load returns ErrModelNotFound when
// nothing is stored for the signature.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, signature Signature) (Snapshot, error)
	// Delete removes the snapshot; deleting a missing one is not an error.
	Delete(ctx context.Context, signature Signature) error

	// SaveCurrent marks which snapshot predict-only operations use.
	SaveCurrent(ctx context.Context, current CurrentModel) error
	// LoadCurrent returns ErrModelNotFound when no model has been marked.
	LoadCurrent(ctx context.Context) (CurrentModel, error)
	ClearCurrent(ctx context.Context) error
}
