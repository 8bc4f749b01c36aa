package folder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footprintai/folderium/internal/auth"
	"github.com/footprintai/folderium/internal/cloud"
	"github.com/footprintai/folderium/internal/model"
	"github.com/footprintai/folderium/internal/notify"
	"github.com/footprintai/folderium/internal/persistence"
	"github.com/footprintai/folderium/internal/trash"
)

// stubCloud is an in-test cloud backend that mints sequential ids and records
// every call it receives.
type stubCloud struct {
	mu         sync.Mutex
	nextID     int
	failCreate error
	failUpdate error

	createTokens []string
	updates      []model.UpdateAppParams
	updated      chan struct{}
}

func newStubCloud() *stubCloud {
	return &stubCloud{updated: make(chan struct{}, 16)}
}

func (s *stubCloud) CreateApp(ctx context.Context, token string, params model.CreateAppParams) (model.AppRevision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return model.AppRevision{}, s.failCreate
	}
	s.createTokens = append(s.createTokens, token)
	s.nextID++
	now := time.Now().Unix()
	return model.AppRevision{
		ID:           fmt.Sprintf("srv-%d", s.nextID),
		WorkspaceID:  params.WorkspaceID,
		Name:         params.Name,
		Desc:         params.Desc,
		ColorStyle:   params.ColorStyle,
		CreateTime:   now,
		ModifiedTime: now,
	}, nil
}

func (s *stubCloud) ReadApp(ctx context.Context, token string, appID string) (*model.AppRevision, error) {
	return nil, nil
}

func (s *stubCloud) UpdateApp(ctx context.Context, token string, params model.UpdateAppParams) error {
	s.mu.Lock()
	err := s.failUpdate
	if err == nil {
		s.updates = append(s.updates, params)
	}
	s.mu.Unlock()
	s.updated <- struct{}{}
	return err
}

func (s *stubCloud) DeleteApp(ctx context.Context, token string, appID string) error {
	return nil
}

type fixture struct {
	store      *persistence.Memory
	cloud      *stubCloud
	bus        *notify.Bus
	trash      *trash.Controller
	controller *AppController
	sub        *notify.Subscriber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: persistence.NewMemory(),
		cloud: newStubCloud(),
		bus:   notify.NewBus(),
	}
	f.trash = trash.NewController(f.store)
	f.controller = NewAppController(
		auth.NewSession("user-1", "token-1"),
		f.store, f.trash, f.cloud, f.bus,
	)
	f.controller.Initialize()
	t.Cleanup(f.controller.Close)

	f.sub = f.bus.Subscribe()
	t.Cleanup(func() { f.bus.Unsubscribe(f.sub.ID) })
	return f
}

func (f *fixture) createApp(t *testing.T, workspaceID, name string) model.App {
	t.Helper()
	app, err := f.controller.CreateAppFromParams(context.Background(), model.CreateAppParams{
		WorkspaceID: workspaceID,
		Name:        name,
	})
	require.NoError(t, err)
	return app
}

func (f *fixture) nextNotification(t *testing.T) notify.Notification {
	t.Helper()
	select {
	case n := <-f.sub.Notifications:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return notify.Notification{}
	}
}

func (f *fixture) drainNotifications() {
	for {
		select {
		case <-f.sub.Notifications:
		default:
			return
		}
	}
}

func appIDs(payload any) []string {
	repeated, ok := payload.(model.RepeatedApp)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(repeated.Items))
	for _, app := range repeated.Items {
		ids = append(ids, app.ID)
	}
	return ids
}

func TestCreateAppFromParams(t *testing.T) {
	f := newFixture(t)

	app := f.createApp(t, "ws-1", "Reading list")

	assert.Equal(t, "srv-1", app.ID, "id comes from the backend")
	assert.Equal(t, 0, app.Position)
	assert.Equal(t, []string{"token-1"}, f.cloud.createTokens, "backend call carries the session token")

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
	assert.Equal(t, "ws-1", n.Key)
	assert.Equal(t, []string{"srv-1"}, appIDs(n.Payload))

	// Second create appends after the first
	app2 := f.createApp(t, "ws-1", "Projects")
	assert.Equal(t, 1, app2.Position)

	n = f.nextNotification(t)
	assert.Equal(t, []string{"srv-1", "srv-2"}, appIDs(n.Payload))
}

func TestCreateAppRejectedByBackend(t *testing.T) {
	f := newFixture(t)
	f.cloud.failCreate = cloud.ErrNetwork

	_, err := f.controller.CreateAppFromParams(context.Background(), model.CreateAppParams{
		WorkspaceID: "ws-1",
		Name:        "Reading list",
	})
	require.ErrorIs(t, err, cloud.ErrNetwork)

	// Nothing was written locally and nothing was announced
	apps, err := f.controller.ReadWorkspaceApps(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Empty(t, apps.Items)

	select {
	case n := <-f.sub.Notifications:
		t.Errorf("unexpected notification %v", n.Type)
	default:
	}
}

func TestCreateAppWithoutToken(t *testing.T) {
	f := newFixture(t)
	controller := NewAppController(
		auth.NewSession("user-1", ""),
		f.store, f.trash, f.cloud, f.bus,
	)

	_, err := controller.CreateAppFromParams(context.Background(), model.CreateAppParams{
		WorkspaceID: "ws-1",
		Name:        "Reading list",
	})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Empty(t, f.cloud.createTokens, "backend is never called without a token")
}

func TestCreateAppValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.CreateAppFromParams(context.Background(), model.CreateAppParams{
		WorkspaceID: "ws-1",
	})
	assert.ErrorIs(t, err, model.ErrEmptyAppName)
	assert.Empty(t, f.cloud.createTokens)
}

func TestReadAppHidesTrashed(t *testing.T) {
	f := newFixture(t)
	app := f.createApp(t, "ws-1", "Reading list")
	f.drainNotifications()

	ctx := context.Background()

	got, err := f.controller.ReadApp(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, app.ID, got.ID)

	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: app.ID, Kind: model.TrashKindApp}}))

	got, err = f.controller.ReadApp(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "trashed app reads as absent without error")

	// Restoring makes it readable again
	require.NoError(t, f.trash.Putback(ctx, []string{app.ID}))
	got, err = f.controller.ReadApp(ctx, app.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestReadAppMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.ReadApp(context.Background(), "nope")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestTrashAddHidesFromWorkspaceList(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: a.ID, Kind: model.TrashKindApp}}))

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
	assert.Equal(t, "ws-1", n.Key)
	assert.Equal(t, []string{b.ID}, appIDs(n.Payload), "trashed app disappears from the visible list")

	apps, err := f.controller.ReadWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps.Items, 1)
	assert.Equal(t, b.ID, apps.Items[0].ID)

	// The row and its position survive under the trash
	require.NoError(t, f.trash.Putback(ctx, []string{a.ID}))
	n = f.nextNotification(t)
	assert.Equal(t, []string{a.ID, b.ID}, appIDs(n.Payload), "restored app reappears at its old position")
}

func TestTrashDeleteDestroysRows(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	c := f.createApp(t, "ws-1", "C")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: b.ID, Kind: model.TrashKindApp}}))
	f.drainNotifications()

	require.NoError(t, f.trash.Delete(ctx, []string{b.ID}))

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
	assert.Equal(t, "ws-1", n.Key, "workspace id was captured before the row was destroyed")
	assert.Equal(t, []string{a.ID, c.ID}, appIDs(n.Payload))

	// The row is gone, not just hidden
	_, err := f.controller.ReadApp(ctx, b.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	// Remaining positions are dense again
	apps, err := f.controller.ReadWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps.Items, 2)
	assert.Equal(t, 0, apps.Items[0].Position)
	assert.Equal(t, 1, apps.Items[1].Position)
}

func TestTrashAddMissingAppFailsEvent(t *testing.T) {
	f := newFixture(t)

	err := f.trash.Add(context.Background(), []model.TrashRevision{{ID: "ghost", Kind: model.TrashKindApp}})
	assert.ErrorIs(t, err, persistence.ErrNotFound, "handler failure propagates through the ack")

	select {
	case n := <-f.sub.Notifications:
		t.Errorf("failed trash add must not announce anything, got %v", n.Type)
	default:
	}
}

func TestTrashDeleteMissingAppFailsEvent(t *testing.T) {
	f := newFixture(t)
	app := f.createApp(t, "ws-1", "Doomed")

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: app.ID, Kind: model.TrashKindApp}}))
	f.drainNotifications()

	// The row vanishes behind the trash entry's back
	require.NoError(t, f.store.Begin(ctx, func(tx persistence.Transaction) error {
		return tx.DeleteApp(ctx, app.ID)
	}))

	err := f.trash.Delete(ctx, []string{app.ID})
	assert.ErrorIs(t, err, persistence.ErrNotFound, "handler failure propagates through the ack")

	select {
	case n := <-f.sub.Notifications:
		t.Errorf("failed delete must not announce anything, got %v", n.Type)
	default:
	}
}

func TestTrashEventForOtherKindsIsAcked(t *testing.T) {
	f := newFixture(t)

	// A view-only event needs no app work but still completes
	err := f.trash.Add(context.Background(), []model.TrashRevision{{ID: "view-1", Kind: model.TrashKindView}})
	assert.NoError(t, err)
}

func TestUpdateApp(t *testing.T) {
	f := newFixture(t)
	app := f.createApp(t, "ws-1", "Reading list")
	f.drainNotifications()

	ctx := context.Background()
	name := "Watch list"
	require.NoError(t, f.controller.UpdateApp(ctx, model.UpdateAppParams{AppID: app.ID, Name: &name}))

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateApp, n.Type)
	assert.Equal(t, app.ID, n.Key)
	updated, ok := n.Payload.(model.App)
	require.True(t, ok)
	assert.Equal(t, "Watch list", updated.Name)
	assert.Equal(t, int64(1), updated.Version)

	// The detached push reaches the backend
	select {
	case <-f.cloud.updated:
	case <-time.After(2 * time.Second):
		t.Fatal("remote update never happened")
	}
	f.cloud.mu.Lock()
	require.Len(t, f.cloud.updates, 1)
	assert.Equal(t, app.ID, f.cloud.updates[0].AppID)
	f.cloud.mu.Unlock()
}

func TestUpdateAppRemoteFailureKeepsLocal(t *testing.T) {
	f := newFixture(t)
	app := f.createApp(t, "ws-1", "Reading list")
	f.drainNotifications()
	f.cloud.failUpdate = cloud.ErrNetwork

	ctx := context.Background()
	name := "Watch list"
	require.NoError(t, f.controller.UpdateApp(ctx, model.UpdateAppParams{AppID: app.ID, Name: &name}),
		"local update succeeds even when the push will fail")

	select {
	case <-f.cloud.updated:
	case <-time.After(2 * time.Second):
		t.Fatal("remote update was never attempted")
	}

	got, err := f.controller.ReadApp(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Watch list", got.Name)
}

func TestUpdateAppMissing(t *testing.T) {
	f := newFixture(t)
	name := "x"

	err := f.controller.UpdateApp(context.Background(), model.UpdateAppParams{AppID: "nope", Name: &name})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestMoveApp(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	c := f.createApp(t, "ws-1", "C")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.controller.MoveApp(ctx, a.ID, 0, 2))

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, appIDs(n.Payload))
}

func TestMoveAppOutOfRange(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	f.createApp(t, "ws-1", "B")
	f.drainNotifications()

	ctx := context.Background()
	err := f.controller.MoveApp(ctx, a.ID, 0, 5)
	require.ErrorIs(t, err, persistence.ErrPositionOutOfRange)

	// Failed move announces nothing and changes nothing
	select {
	case n := <-f.sub.Notifications:
		t.Errorf("unexpected notification %v", n.Type)
	default:
	}
	apps, err := f.controller.ReadWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, 0, apps.Items[0].Position)
}

func TestWorkspaceOrderingSurvivesTrash(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	c := f.createApp(t, "ws-1", "C")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: b.ID, Kind: model.TrashKindApp}}))
	f.drainNotifications()

	// Visible list keeps relative order with positions preserved over all rows
	apps, err := f.controller.ReadWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps.Items, 2)
	assert.Equal(t, a.ID, apps.Items[0].ID)
	assert.Equal(t, c.ID, apps.Items[1].ID)
	assert.Equal(t, 0, apps.Items[0].Position)
	assert.Equal(t, 2, apps.Items[1].Position)
}

func TestTrashEventTouchingTwoWorkspaces(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-2", "B")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{
		{ID: a.ID, Kind: model.TrashKindApp},
		{ID: b.ID, Kind: model.TrashKindApp},
	}))

	keys := map[string][]string{}
	for i := 0; i < 2; i++ {
		n := f.nextNotification(t)
		require.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
		keys[n.Key] = appIDs(n.Payload)
	}
	require.Len(t, keys, 2, "each touched workspace gets exactly one notification")
	assert.Empty(t, keys["ws-1"])
	assert.Empty(t, keys["ws-2"])
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.controller.Initialize()
	f.controller.Initialize()

	// Still exactly one listener: a single event gets a single ack
	err := f.trash.Add(context.Background(), []model.TrashRevision{{ID: "view-1", Kind: model.TrashKindView}})
	assert.NoError(t, err)
}

func TestCloseStopsListener(t *testing.T) {
	f := newFixture(t)
	f.controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := f.trash.Add(ctx, []model.TrashRevision{{ID: "view-1", Kind: model.TrashKindView}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentCreates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.controller.CreateAppFromParams(ctx, model.CreateAppParams{
				WorkspaceID: "ws-1",
				Name:        fmt.Sprintf("App %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	apps, err := f.controller.ReadWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps.Items, 10)
	for i, app := range apps.Items {
		assert.Equal(t, i, app.Position, "positions are dense after concurrent creates")
	}
}

func TestReadLocalAppsRaw(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	f.drainNotifications()

	ctx := context.Background()
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: a.ID, Kind: model.TrashKindApp}}))

	// Trashed rows come back and the order follows the request
	revs, err := f.controller.ReadLocalApps(ctx, []string{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, b.ID, revs[0].ID)
	assert.Equal(t, a.ID, revs[1].ID)

	// One missing id fails the whole call
	_, err = f.controller.ReadLocalApps(ctx, []string{b.ID, "nope"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

// recordingMetrics captures operation counts for assertions.
type recordingMetrics struct {
	mu      sync.Mutex
	ops     []string
	actions []string
}

func (r *recordingMetrics) RecordAppOp(ctx context.Context, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingMetrics) RecordTrashEvent(ctx context.Context, action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func TestOperationsAreRecorded(t *testing.T) {
	f := newFixture(t)
	rec := &recordingMetrics{}
	f.controller.SetMetrics(rec)

	app := f.createApp(t, "ws-1", "Reading list")
	ctx := context.Background()
	_, err := f.controller.ReadApp(ctx, app.ID)
	require.NoError(t, err)
	require.NoError(t, f.trash.Add(ctx, []model.TrashRevision{{ID: app.ID, Kind: model.TrashKindApp}}))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"create", "read"}, rec.ops)
	assert.Equal(t, []string{"new_trash"}, rec.actions)
}

func TestUpdateAppWithoutToken(t *testing.T) {
	f := newFixture(t)
	app := f.createApp(t, "ws-1", "Reading list")
	f.drainNotifications()

	controller := NewAppController(
		auth.NewSession("user-1", ""),
		f.store, f.trash, f.cloud, f.bus,
	)

	name := "Renamed"
	err := controller.UpdateApp(context.Background(), model.UpdateAppParams{AppID: app.ID, Name: &name})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	// The local commit and its notification happen before the token check
	got, err := f.controller.ReadApp(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateApp, n.Type)
}

func TestMoveAppSamePositionStillNotifies(t *testing.T) {
	f := newFixture(t)
	a := f.createApp(t, "ws-1", "A")
	b := f.createApp(t, "ws-1", "B")
	f.drainNotifications()

	require.NoError(t, f.controller.MoveApp(context.Background(), a.ID, 0, 0))

	n := f.nextNotification(t)
	assert.Equal(t, notify.DidUpdateWorkspaceApps, n.Type)
	assert.Equal(t, "ws-1", n.Key)
	assert.Equal(t, []string{a.ID, b.ID}, appIDs(n.Payload), "order is unchanged")
}
