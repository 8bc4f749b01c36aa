package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/footprintai/folderium/internal/model"
)

// Memory is an in-memory persistence gateway with the same transactional
// semantics as Store. A transaction works on a private copy of the state and
// swaps it in on commit, so a failed closure leaves nothing behind. Used by
// unit tests and by the daemon's --memory mode.
type Memory struct {
	mu    sync.Mutex
	apps  map[string]model.AppRevision
	trash map[string]model.TrashRevision
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		apps:  make(map[string]model.AppRevision),
		trash: make(map[string]model.TrashRevision),
	}
}

// Begin runs fn against a snapshot copy; commit swaps the copy in.
// Transactions are fully serialized by the store's mutex.
func (m *Memory) Begin(ctx context.Context, fn func(tx Transaction) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTransaction{
		apps:  make(map[string]model.AppRevision, len(m.apps)),
		trash: make(map[string]model.TrashRevision, len(m.trash)),
	}
	for id, rev := range m.apps {
		tx.apps[id] = rev
	}
	for id, item := range m.trash {
		tx.trash[id] = item
	}

	if err := fn(tx); err != nil {
		return err
	}

	m.apps = tx.apps
	m.trash = tx.trash
	return nil
}

type memoryTransaction struct {
	apps  map[string]model.AppRevision
	trash map[string]model.TrashRevision
}

func (t *memoryTransaction) workspaceApps(workspaceID string) []model.AppRevision {
	var revs []model.AppRevision
	for _, rev := range t.apps {
		if rev.WorkspaceID == workspaceID {
			revs = append(revs, rev)
		}
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].Position < revs[j].Position })
	return revs
}

func (t *memoryTransaction) CreateApp(ctx context.Context, rev model.AppRevision) error {
	if _, ok := t.apps[rev.ID]; ok {
		return ErrAlreadyExists
	}
	rev.Position = len(t.workspaceApps(rev.WorkspaceID))
	t.apps[rev.ID] = rev
	return nil
}

func (t *memoryTransaction) ReadApp(ctx context.Context, appID string) (model.AppRevision, error) {
	rev, ok := t.apps[appID]
	if !ok {
		return model.AppRevision{}, ErrNotFound
	}
	return rev, nil
}

func (t *memoryTransaction) UpdateApp(ctx context.Context, changeset model.AppChangeset) error {
	rev, ok := t.apps[changeset.AppID]
	if !ok {
		return ErrNotFound
	}
	if changeset.Name != nil {
		rev.Name = *changeset.Name
	}
	if changeset.Desc != nil {
		rev.Desc = *changeset.Desc
	}
	if changeset.ColorStyle != nil {
		rev.ColorStyle = *changeset.ColorStyle
	}
	rev.Version++
	rev.ModifiedTime = changeset.ModifiedTime
	t.apps[changeset.AppID] = rev
	return nil
}

func (t *memoryTransaction) DeleteApp(ctx context.Context, appID string) error {
	rev, ok := t.apps[appID]
	if !ok {
		return ErrNotFound
	}
	delete(t.apps, appID)
	for id, other := range t.apps {
		if other.WorkspaceID == rev.WorkspaceID && other.Position > rev.Position {
			other.Position--
			t.apps[id] = other
		}
	}
	return nil
}

func (t *memoryTransaction) MoveApp(ctx context.Context, appID string, from, to int) error {
	rev, ok := t.apps[appID]
	if !ok {
		return ErrNotFound
	}
	count := len(t.workspaceApps(rev.WorkspaceID))
	if rev.Position != from || from < 0 || from >= count || to < 0 || to >= count {
		return ErrPositionOutOfRange
	}
	if from == to {
		return nil
	}
	for id, other := range t.apps {
		if other.WorkspaceID != rev.WorkspaceID || id == appID {
			continue
		}
		switch {
		case from < to && other.Position > from && other.Position <= to:
			other.Position--
			t.apps[id] = other
		case from > to && other.Position >= to && other.Position < from:
			other.Position++
			t.apps[id] = other
		}
	}
	rev.Position = to
	t.apps[appID] = rev
	return nil
}

func (t *memoryTransaction) ReadWorkspaceApps(ctx context.Context, workspaceID string) ([]model.AppRevision, error) {
	return t.workspaceApps(workspaceID), nil
}

func (t *memoryTransaction) CreateTrash(ctx context.Context, items []model.TrashRevision) error {
	for _, item := range items {
		if _, ok := t.trash[item.ID]; !ok {
			t.trash[item.ID] = item
		}
	}
	return nil
}

func (t *memoryTransaction) DeleteTrash(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(t.trash, id)
	}
	return nil
}

func (t *memoryTransaction) ReadTrash(ctx context.Context) ([]model.TrashRevision, error) {
	items := make([]model.TrashRevision, 0, len(t.trash))
	for _, item := range t.trash {
		items = append(items, item)
	}
	return items, nil
}
