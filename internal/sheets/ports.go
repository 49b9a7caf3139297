package sheets

import (
	"context"

	"baedal/internal/core"
)

// Ports for outbound snapshot adapters.
type (
	// SnapshotWriter replaces the remote copy of the ledger.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, entries []core.Entry) error
	}

	// SnapshotReader reads the remote copy back for a restore.
	SnapshotReader interface {
		ReadSnapshot(ctx context.Context) ([]core.Entry, error)
	}

	SnapshotStore interface {
		SnapshotWriter
		SnapshotReader
	}
)
