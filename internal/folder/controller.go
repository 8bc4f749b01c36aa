package folder

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/footprintai/folderium/internal/cloud"
	"github.com/footprintai/folderium/internal/model"
	"github.com/footprintai/folderium/internal/notify"
	"github.com/footprintai/folderium/internal/persistence"
	"github.com/footprintai/folderium/internal/trash"
)

// WorkspaceUser supplies the identity and credentials of the signed-in user.
type WorkspaceUser interface {
	UserID() string
	Token() (string, error)
}

// OpRecorder counts controller operations and trash events for monitoring.
type OpRecorder interface {
	RecordAppOp(ctx context.Context, op string, err error)
	RecordTrashEvent(ctx context.Context, action string, err error)
}

// AppController coordinates app mutations across the cloud backend, the local
// store, the trash set, and the notification bus.
//
// Creates go to the cloud first: the backend mints the app id, and a failed
// remote call leaves the local store untouched. Updates commit locally first
// and push to the backend from a detached goroutine whose failure is only
// logged. Reads never leave the local store on the caller's path.
type AppController struct {
	user        WorkspaceUser
	persistence persistence.Persistence
	trash       *trash.Controller
	cloud       cloud.Service
	notifier    *notify.Bus
	recorder    OpRecorder

	initOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewAppController wires a controller over its collaborators.
func NewAppController(
	user WorkspaceUser,
	p persistence.Persistence,
	tc *trash.Controller,
	cs cloud.Service,
	bus *notify.Bus,
) *AppController {
	return &AppController{
		user:        user,
		persistence: p,
		trash:       tc,
		cloud:       cs,
		notifier:    bus,
		done:        make(chan struct{}),
	}
}

// SetMetrics attaches an operation recorder. Call before Initialize; without
// one, operations are not counted.
func (c *AppController) SetMetrics(r OpRecorder) {
	c.recorder = r
}

func (c *AppController) recordOp(ctx context.Context, op string, err error) {
	if c.recorder != nil {
		c.recorder.RecordAppOp(ctx, op, err)
	}
}

// Initialize starts the trash event listener. Safe to call more than once;
// only the first call has an effect.
func (c *AppController) Initialize() {
	c.initOnce.Do(func() {
		events := c.trash.Subscribe()
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					c.handleTrashEvent(context.Background(), ev)
				case <-c.done:
					return
				}
			}
		}()
	})
}

// Close stops the trash event listener and waits for it to drain.
func (c *AppController) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.wg.Wait()
}

// CreateAppFromParams creates the app on the cloud backend and then records
// the returned revision locally. The backend is authoritative for the id; if
// it rejects the create, nothing is written locally.
func (c *AppController) CreateAppFromParams(ctx context.Context, params model.CreateAppParams) (app model.App, err error) {
	defer func() { c.recordOp(ctx, "create", err) }()

	if err := params.Validate(); err != nil {
		return model.App{}, err
	}

	token, err := c.user.Token()
	if err != nil {
		return model.App{}, err
	}

	rev, err := c.cloud.CreateApp(ctx, token, params)
	if err != nil {
		return model.App{}, fmt.Errorf("failed to create app on server: %w", err)
	}

	return c.CreateAppOnLocal(ctx, rev)
}

// CreateAppOnLocal records an already-minted revision in the local store and
// announces the workspace's new visible app list.
func (c *AppController) CreateAppOnLocal(ctx context.Context, rev model.AppRevision) (model.App, error) {
	var stored model.AppRevision
	var apps []model.App
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		if err := tx.CreateApp(ctx, rev); err != nil {
			return err
		}
		// The store assigns the workspace-end position on insert; re-read so
		// the returned view carries it.
		var err error
		stored, err = tx.ReadApp(ctx, rev.ID)
		if err != nil {
			return err
		}
		apps, err = c.readWorkspaceApps(ctx, tx, rev.WorkspaceID)
		return err
	})
	if err != nil {
		return model.App{}, err
	}

	c.notifyAppsChanged(rev.WorkspaceID, apps)
	return stored.View(), nil
}

// ReadApp returns the app from the local store, or nil when the app exists
// but sits in the trash. A missing row is an error, never nil. Trash
// membership and the row itself are read in the same transaction so a
// concurrent trash operation cannot produce a torn answer.
func (c *AppController) ReadApp(ctx context.Context, appID string) (app *model.App, err error) {
	defer func() { c.recordOp(ctx, "read", err) }()

	if appID == "" {
		return nil, model.ErrEmptyAppID
	}

	err = c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		rev, err := tx.ReadApp(ctx, appID)
		if err != nil {
			return err
		}
		trashed, err := c.trash.ReadTrashIDs(ctx, tx)
		if err != nil {
			return err
		}
		if _, ok := trashed[appID]; ok {
			return nil
		}
		view := rev.View()
		app = &view
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.readAppOnServer(appID)
	return app, nil
}

// UpdateApp applies a sparse update locally, announces the updated app, and
// pushes the update to the backend from a detached goroutine. A failed remote
// push is logged and not retried; a signed-out session returns Unauthorized
// after the local commit.
//
// TODO: queue failed remote updates for retry once the backend exposes
// revision-based conflict resolution.
func (c *AppController) UpdateApp(ctx context.Context, params model.UpdateAppParams) (err error) {
	defer func() { c.recordOp(ctx, "update", err) }()

	if err := params.Validate(); err != nil {
		return err
	}

	changeset := model.NewAppChangeset(params)

	var updated model.AppRevision
	err = c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		if err := tx.UpdateApp(ctx, changeset); err != nil {
			return err
		}
		var err error
		updated, err = tx.ReadApp(ctx, params.AppID)
		return err
	})
	if err != nil {
		return err
	}

	c.notifier.SendNotification(params.AppID, notify.DidUpdateApp).
		Payload(updated.View()).
		Send()

	return c.updateAppOnServer(params)
}

// MoveApp moves the app from position from to position to within its
// workspace and announces the workspace's reordered visible list.
func (c *AppController) MoveApp(ctx context.Context, appID string, from, to int) (err error) {
	defer func() { c.recordOp(ctx, "move", err) }()

	if appID == "" {
		return model.ErrEmptyAppID
	}

	var workspaceID string
	var apps []model.App
	err = c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		if err := tx.MoveApp(ctx, appID, from, to); err != nil {
			return err
		}
		rev, err := tx.ReadApp(ctx, appID)
		if err != nil {
			return err
		}
		workspaceID = rev.WorkspaceID
		apps, err = c.readWorkspaceApps(ctx, tx, workspaceID)
		return err
	})
	if err != nil {
		return err
	}

	c.notifyAppsChanged(workspaceID, apps)
	return nil
}

// ReadWorkspaceApps returns the workspace's visible apps in position order.
func (c *AppController) ReadWorkspaceApps(ctx context.Context, workspaceID string) (model.RepeatedApp, error) {
	if workspaceID == "" {
		return model.RepeatedApp{}, model.ErrEmptyWorkspaceID
	}

	var apps []model.App
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		var err error
		apps, err = c.readWorkspaceApps(ctx, tx, workspaceID)
		return err
	})
	if err != nil {
		return model.RepeatedApp{}, err
	}
	return model.RepeatedApp{Items: apps}, nil
}

// ReadLocalApps reads the given apps straight from the local store in the
// requested order. No trash filtering is applied and any missing id fails the
// whole call; sync paths need the raw rows, hidden or not.
func (c *AppController) ReadLocalApps(ctx context.Context, appIDs []string) ([]model.AppRevision, error) {
	revs := make([]model.AppRevision, 0, len(appIDs))
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		revs = revs[:0]
		for _, id := range appIDs {
			rev, err := tx.ReadApp(ctx, id)
			if err != nil {
				return fmt.Errorf("app %s: %w", id, err)
			}
			revs = append(revs, rev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revs, nil
}

// readWorkspaceApps reads the workspace's apps inside tx and drops the
// trashed ones, preserving position order.
func (c *AppController) readWorkspaceApps(ctx context.Context, tx persistence.Transaction, workspaceID string) ([]model.App, error) {
	trashed, err := c.trash.ReadTrashIDs(ctx, tx)
	if err != nil {
		return nil, err
	}
	revs, err := tx.ReadWorkspaceApps(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	apps := make([]model.App, 0, len(revs))
	for _, rev := range revs {
		if _, ok := trashed[rev.ID]; ok {
			continue
		}
		apps = append(apps, rev.View())
	}
	return apps, nil
}

// notifyAppsChanged announces the workspace's current visible app list.
func (c *AppController) notifyAppsChanged(workspaceID string, apps []model.App) {
	c.notifier.SendNotification(workspaceID, notify.DidUpdateWorkspaceApps).
		Payload(model.RepeatedApp{Items: apps}).
		Send()
}

// handleTrashEvent applies the app-side consequences of a trash mutation and
// acknowledges the event exactly once.
//
// NewTrash and Putback change only visibility: the affected workspaces get a
// fresh visible list. Delete destroys the rows; the workspace ids are captured
// before deletion, in the same transaction, because the rows are gone after.
func (c *AppController) handleTrashEvent(ctx context.Context, ev trash.Event) {
	items := ev.AppItems()
	if len(items) == 0 {
		c.ack(ev, nil)
		return
	}

	var err error
	switch ev.Action {
	case trash.ActionNewTrash, trash.ActionPutback:
		err = c.refreshWorkspaces(ctx, items)
	case trash.ActionDelete:
		err = c.deleteApps(ctx, items)
	default:
		err = fmt.Errorf("unknown trash action %v", ev.Action)
	}

	if err != nil {
		log.Printf("trash %s: app handler failed: %v", ev.Action, err)
	}
	if c.recorder != nil {
		c.recorder.RecordTrashEvent(ctx, ev.Action.String(), err)
	}
	c.ack(ev, err)
}

// refreshWorkspaces recomputes the visible list for every workspace touched by
// the trashed or restored apps. All lists come from one transaction; the
// notifications go out only after it commits.
func (c *AppController) refreshWorkspaces(ctx context.Context, items []model.TrashRevision) error {
	lists := make(map[string][]model.App)
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		for _, item := range items {
			rev, err := tx.ReadApp(ctx, item.ID)
			if err != nil {
				return fmt.Errorf("app %s: %w", item.ID, err)
			}
			if _, ok := lists[rev.WorkspaceID]; ok {
				continue
			}
			apps, err := c.readWorkspaceApps(ctx, tx, rev.WorkspaceID)
			if err != nil {
				return err
			}
			lists[rev.WorkspaceID] = apps
		}
		return nil
	})
	if err != nil {
		return err
	}

	for workspaceID, apps := range lists {
		c.notifyAppsChanged(workspaceID, apps)
	}
	return nil
}

// deleteApps permanently removes the trashed apps. Workspace ids are read
// before the rows are deleted; the post-delete visible lists are computed in
// the same transaction and announced only after commit.
func (c *AppController) deleteApps(ctx context.Context, items []model.TrashRevision) error {
	lists := make(map[string][]model.App)
	err := c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
		workspaces := make(map[string]struct{})
		for _, item := range items {
			rev, err := tx.ReadApp(ctx, item.ID)
			if err != nil {
				return fmt.Errorf("app %s: %w", item.ID, err)
			}
			workspaces[rev.WorkspaceID] = struct{}{}
			if err := tx.DeleteApp(ctx, item.ID); err != nil {
				return fmt.Errorf("app %s: %w", item.ID, err)
			}
		}
		for workspaceID := range workspaces {
			apps, err := c.readWorkspaceApps(ctx, tx, workspaceID)
			if err != nil {
				return err
			}
			lists[workspaceID] = apps
		}
		return nil
	})
	if err != nil {
		return err
	}

	for workspaceID, apps := range lists {
		c.notifyAppsChanged(workspaceID, apps)
	}
	return nil
}

// ack reports the handler outcome without ever blocking on a full channel.
func (c *AppController) ack(ev trash.Event, err error) {
	if ev.Ack == nil {
		return
	}
	select {
	case ev.Ack <- err:
	default:
	}
}

// readAppOnServer refreshes the local copy from the backend in the
// background. The caller's read has already returned; a changed revision is
// written locally and announced.
func (c *AppController) readAppOnServer(appID string) {
	token, err := c.user.Token()
	if err != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx := context.Background()
		rev, err := c.cloud.ReadApp(ctx, token, appID)
		if err != nil {
			log.Printf("read app %s from server failed: %v", appID, err)
			return
		}
		if rev == nil {
			return
		}

		var stale bool
		err = c.persistence.Begin(ctx, func(tx persistence.Transaction) error {
			local, err := tx.ReadApp(ctx, appID)
			if err != nil {
				return err
			}
			if rev.Version <= local.Version {
				stale = true
				return nil
			}
			name, desc, color := rev.Name, rev.Desc, rev.ColorStyle
			return tx.UpdateApp(ctx, model.AppChangeset{
				AppID:        appID,
				Name:         &name,
				Desc:         &desc,
				ColorStyle:   &color,
				ModifiedTime: rev.ModifiedTime,
			})
		})
		if err != nil {
			log.Printf("save app %s from server failed: %v", appID, err)
			return
		}
		if stale {
			return
		}

		c.notifier.SendNotification(appID, notify.DidUpdateApp).
			Payload(rev.View()).
			Send()
	}()
}

// updateAppOnServer pushes a committed local update to the backend. The token
// is fetched synchronously so a signed-out session surfaces Unauthorized; the
// network push itself is detached and its failure only logged.
func (c *AppController) updateAppOnServer(params model.UpdateAppParams) error {
	token, err := c.user.Token()
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.cloud.UpdateApp(context.Background(), token, params); err != nil {
			log.Printf("update app %s on server failed: %v", params.AppID, err)
		}
	}()
	return nil
}
