package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footprintai/folderium/internal/auth"
	"github.com/footprintai/folderium/internal/client"
	"github.com/footprintai/folderium/internal/cloud"
	"github.com/footprintai/folderium/internal/folder"
	"github.com/footprintai/folderium/internal/model"
	"github.com/footprintai/folderium/internal/notify"
	"github.com/footprintai/folderium/internal/persistence"
	"github.com/footprintai/folderium/internal/trash"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	store := persistence.NewMemory()
	bus := notify.NewBus()
	tc := trash.NewController(store)
	controller := folder.NewAppController(
		auth.NewSession("user-1", "local"),
		store, tc, cloud.NewLocalService(), bus,
	)
	controller.Initialize()
	t.Cleanup(controller.Close)

	tm := auth.NewTokenManager("test-secret", "folderium")
	gs := NewGatewayServer(0, auth.NewAuthMiddleware(tm), controller, tc, bus)

	srv := httptest.NewServer(gs.Handler())
	t.Cleanup(srv.Close)

	token, err := tm.GenerateToken("user-1", "", time.Hour)
	require.NoError(t, err)

	return srv, token
}

func TestHealthNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/workspaces/ws-1/apps")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/workspaces/ws-1/apps", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAppLifecycleOverREST(t *testing.T) {
	srv, token := newTestServer(t)

	c, err := client.NewHTTPClient(srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	// Create two apps
	first, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "First"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.Position)

	second, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "Second"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	// Read one back
	got, err := c.GetApp(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)

	// Update
	name := "Renamed"
	require.NoError(t, c.UpdateApp(ctx, model.UpdateAppParams{AppID: first.ID, Name: &name}))
	got, err = c.GetApp(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)

	// Move
	require.NoError(t, c.MoveApp(ctx, first.ID, 0, 1))
	apps, err := c.ListWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)
}

func TestTrashFlowOverREST(t *testing.T) {
	srv, token := newTestServer(t)

	c, err := client.NewHTTPClient(srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	app, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "Doomed"})
	require.NoError(t, err)

	// Trash it: list hides it, read returns null
	require.NoError(t, c.AddTrash(ctx, []model.TrashRevision{{ID: app.ID, Kind: model.TrashKindApp}}))

	apps, err := c.ListWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	assert.Empty(t, apps)

	got, err := c.GetApp(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "trashed app reads as null, not 404")

	// Restore it
	require.NoError(t, c.PutbackTrash(ctx, []string{app.ID}))
	apps, err = c.ListWorkspaceApps(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, apps, 1)

	// Trash again and destroy
	require.NoError(t, c.AddTrash(ctx, []model.TrashRevision{{ID: app.ID, Kind: model.TrashKindApp}}))
	require.NoError(t, c.DeleteTrash(ctx, []string{app.ID}))

	_, err = c.GetApp(ctx, app.ID)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}

func TestCreateAppValidationOverREST(t *testing.T) {
	srv, token := newTestServer(t)

	c, err := client.NewHTTPClient(srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CreateApp(context.Background(), model.CreateAppParams{WorkspaceID: "ws-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestMoveAppBadPositionOverREST(t *testing.T) {
	srv, token := newTestServer(t)

	c, err := client.NewHTTPClient(srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	app, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "Only"})
	require.NoError(t, err)

	err = c.MoveApp(ctx, app.ID, 0, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position")
}

func TestReadLocalAppsOverREST(t *testing.T) {
	srv, token := newTestServer(t)

	c, err := client.NewHTTPClient(srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	a, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "A"})
	require.NoError(t, err)
	b, err := c.CreateApp(ctx, model.CreateAppParams{WorkspaceID: "ws-1", Name: "B"})
	require.NoError(t, err)

	// Raw reads include trashed rows
	require.NoError(t, c.AddTrash(ctx, []model.TrashRevision{{ID: a.ID, Kind: model.TrashKindApp}}))

	revs, err := c.ReadLocalApps(ctx, []string{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, b.ID, revs[0].ID)
	assert.Equal(t, a.ID, revs[1].ID)

	// A missing id fails the whole request
	_, err = c.ReadLocalApps(ctx, []string{b.ID, "nope"})
	require.Error(t, err)

	// No ids at all is a bad request
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/apps", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
