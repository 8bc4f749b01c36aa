package persistence

import (
	"context"
	"errors"

	"github.com/footprintai/folderium/internal/model"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("app not found")

	// ErrAlreadyExists is returned when inserting an app whose id is taken
	ErrAlreadyExists = errors.New("app already exists")

	// ErrPositionOutOfRange is returned by MoveApp when from/to do not
	// address valid positions in the workspace
	ErrPositionOutOfRange = errors.New("position out of range")
)

// Transaction is a scoped, atomic view over the folder tables. All reads and
// writes issued through a Transaction observe the same snapshot; the
// transaction commits or rolls back as a whole when the Begin closure returns.
type Transaction interface {
	// CreateApp inserts a revision, appending it at the end of its
	// workspace's ordering. The revision's Position field is ignored.
	CreateApp(ctx context.Context, rev model.AppRevision) error

	// ReadApp returns the revision for the given id, or ErrNotFound.
	ReadApp(ctx context.Context, appID string) (model.AppRevision, error)

	// UpdateApp applies a sparse changeset. ErrNotFound if the id is absent.
	UpdateApp(ctx context.Context, changeset model.AppChangeset) error

	// DeleteApp removes the row and closes the ordering gap it leaves.
	DeleteApp(ctx context.Context, appID string) error

	// MoveApp permutes the workspace ordering, moving the app currently at
	// position from to position to. The multiset of apps is unchanged.
	MoveApp(ctx context.Context, appID string, from, to int) error

	// ReadWorkspaceApps returns the workspace's apps in position order.
	ReadWorkspaceApps(ctx context.Context, workspaceID string) ([]model.AppRevision, error)

	// CreateTrash records trash entries; existing ids are left untouched.
	CreateTrash(ctx context.Context, items []model.TrashRevision) error

	// DeleteTrash removes trash entries by id. Missing ids are ignored.
	DeleteTrash(ctx context.Context, ids []string) error

	// ReadTrash returns every trash entry across all entity kinds.
	ReadTrash(ctx context.Context) ([]model.TrashRevision, error)
}

// Persistence runs closures against transactions. The closure executes exactly
// once; a nil return commits, an error rolls everything back and is returned
// to the caller unchanged.
type Persistence interface {
	Begin(ctx context.Context, fn func(tx Transaction) error) error
}
