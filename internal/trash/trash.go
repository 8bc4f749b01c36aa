package trash

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/footprintai/folderium/internal/model"
	"github.com/footprintai/folderium/internal/persistence"
)

// Action discriminates the trash event variants.
type Action int

const (
	// ActionNewTrash means the items were just moved into the trash.
	ActionNewTrash Action = iota

	// ActionPutback means the items were restored from the trash.
	ActionPutback

	// ActionDelete means the items are being permanently destroyed.
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionNewTrash:
		return "new_trash"
	case ActionPutback:
		return "putback"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Event announces a trash mutation to subscribed entity controllers. The trash
// table rows are already committed when the event is observed; consumers apply
// their own follow-up work and report the outcome exactly once through Ack.
type Event struct {
	Action Action
	Items  []model.TrashRevision
	Ack    chan error
}

// AppItems returns the subset of the event's items that refer to apps.
func (e Event) AppItems() []model.TrashRevision {
	var items []model.TrashRevision
	for _, item := range e.Items {
		if item.Kind == model.TrashKindApp {
			items = append(items, item)
		}
	}
	return items
}

// Controller owns the shared trash set. It mutates the trash table inside a
// persistence transaction and then publishes the corresponding event, waiting
// for the subscriber's acknowledgement before returning to the caller.
type Controller struct {
	persistence persistence.Persistence
	events      chan Event
}

// NewController creates a trash controller on top of the given store.
func NewController(p persistence.Persistence) *Controller {
	return &Controller{
		persistence: p,
		events:      make(chan Event, 16),
	}
}

// Subscribe returns the trash event stream. There is a single long-lived
// stream shared by all entity controllers; each consumer filters by kind.
func (c *Controller) Subscribe() <-chan Event {
	return c.events
}

// ReadTrashIDs returns the ids of every trashed entity as seen by the given
// transaction. Readers call this inside their own transactions so trash
// filtering observes the same snapshot as the rows being filtered.
func (c *Controller) ReadTrashIDs(ctx context.Context, tx persistence.Transaction) (map[string]struct{}, error) {
	items, err := tx.ReadTrash(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.ID] = struct{}{}
	}
	return ids, nil
}

// Add moves the given entities into the trash and notifies subscribers.
func (c *Controller) Add(ctx context.Context, items []model.TrashRevision) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().Unix()
	for i := range items {
		if items[i].CreateTime == 0 {
			items[i].CreateTime = now
		}
	}
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		return tx.CreateTrash(ctx, items)
	})
	if err != nil {
		return fmt.Errorf("failed to add trash: %w", err)
	}
	return c.emit(ctx, Event{Action: ActionNewTrash, Items: items})
}

// Putback restores the given entities from the trash and notifies subscribers.
func (c *Controller) Putback(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	items, err := c.removeEntries(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to putback trash: %w", err)
	}
	return c.emit(ctx, Event{Action: ActionPutback, Items: items})
}

// Delete permanently destroys the given trashed entities. Subscribers delete
// the underlying rows; the trash entries themselves are removed here.
func (c *Controller) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	items, err := c.removeEntries(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete trash: %w", err)
	}
	return c.emit(ctx, Event{Action: ActionDelete, Items: items})
}

// removeEntries deletes trash rows by id and returns the entries that were
// actually present, with their recorded kinds.
func (c *Controller) removeEntries(ctx context.Context, ids []string) ([]model.TrashRevision, error) {
	var items []model.TrashRevision
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		all, err := tx.ReadTrash(ctx)
		if err != nil {
			return err
		}
		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		items = items[:0]
		for _, item := range all {
			if _, ok := wanted[item.ID]; ok {
				items = append(items, item)
			}
		}
		return tx.DeleteTrash(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// emit publishes the event and waits for the subscriber's acknowledgement.
func (c *Controller) emit(ctx context.Context, ev Event) error {
	ev.Ack = make(chan error, 1)

	select {
	case c.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.Ack:
		if err != nil {
			log.Printf("trash %s handler failed: %v", ev.Action, err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
