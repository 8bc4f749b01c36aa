package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/rs/cors"

	"github.com/footprintai/folderium/internal/auth"
	"github.com/footprintai/folderium/internal/folder"
	"github.com/footprintai/folderium/internal/model"
	"github.com/footprintai/folderium/internal/notify"
	"github.com/footprintai/folderium/internal/persistence"
	"github.com/footprintai/folderium/internal/trash"
)

// GatewayServer implements the HTTP/REST surface over the folder controller
type GatewayServer struct {
	httpPort       int
	authMiddleware *auth.AuthMiddleware
	apps           *folder.AppController
	trash          *trash.Controller
	eventHandler   *EventHandler

	server *http.Server
}

// NewGatewayServer creates a new gateway server
func NewGatewayServer(httpPort int, authMiddleware *auth.AuthMiddleware, apps *folder.AppController, tc *trash.Controller, bus *notify.Bus) *GatewayServer {
	return &GatewayServer{
		httpPort:       httpPort,
		authMiddleware: authMiddleware,
		apps:           apps,
		trash:          tc,
		eventHandler:   NewEventHandler(bus),
	}
}

// Handler builds the full HTTP routing tree: the authenticated API behind
// CORS plus the unauthenticated health check.
func (gs *GatewayServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/apps", gs.handleCreateApp)
	mux.HandleFunc("GET /v1/apps", gs.handleReadLocalApps)
	mux.HandleFunc("GET /v1/apps/{id}", gs.handleGetApp)
	mux.HandleFunc("PATCH /v1/apps/{id}", gs.handleUpdateApp)
	mux.HandleFunc("POST /v1/apps/{id}/move", gs.handleMoveApp)
	mux.HandleFunc("GET /v1/workspaces/{id}/apps", gs.handleListWorkspaceApps)

	mux.HandleFunc("POST /v1/trash", gs.handleAddTrash)
	mux.HandleFunc("POST /v1/trash/putback", gs.handlePutbackTrash)
	mux.HandleFunc("DELETE /v1/trash", gs.handleDeleteTrash)

	mux.HandleFunc("GET /v1/events/subscribe", gs.eventHandler.HandleSSE)
	mux.HandleFunc("GET /v1/events/ws", gs.eventHandler.HandleWebSocket)

	// Set FOLDERIUM_ALLOWED_ORIGINS env var to configure allowed origins
	handler := gs.authMiddleware.HTTPMiddleware(mux)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   getAllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(handler)

	httpMux := http.NewServeMux()
	httpMux.Handle("/v1/", corsHandler)

	// Health check endpoint (no auth required)
	httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return httpMux
}

// Start starts the HTTP gateway server and blocks until it exits.
func (gs *GatewayServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", gs.httpPort)
	log.Printf("Starting HTTP/REST gateway on %s", addr)

	gs.server = &http.Server{Addr: addr, Handler: gs.Handler()}
	if err := gs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (gs *GatewayServer) Shutdown(ctx context.Context) error {
	if gs.server == nil {
		return nil
	}
	return gs.server.Shutdown(ctx)
}

func (gs *GatewayServer) handleCreateApp(w http.ResponseWriter, r *http.Request) {
	var params model.CreateAppParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	app, err := gs.apps.CreateAppFromParams(r.Context(), params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"app": app})
}

// handleReadLocalApps serves raw bulk reads for sync clients. Trashed apps are
// included and a missing id fails the whole request.
func (gs *GatewayServer) handleReadLocalApps(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing ids query parameter"))
		return
	}

	revs, err := gs.apps.ReadLocalApps(r.Context(), ids)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"apps": revs})
}

func (gs *GatewayServer) handleGetApp(w http.ResponseWriter, r *http.Request) {
	app, err := gs.apps.ReadApp(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	// Trashed apps read as null rather than 404: the row exists but is hidden
	writeJSON(w, http.StatusOK, map[string]interface{}{"app": app})
}

func (gs *GatewayServer) handleUpdateApp(w http.ResponseWriter, r *http.Request) {
	var params model.UpdateAppParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	params.AppID = r.PathValue("id")

	if err := gs.apps.UpdateApp(r.Context(), params); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gs *GatewayServer) handleMoveApp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := gs.apps.MoveApp(r.Context(), r.PathValue("id"), req.From, req.To); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gs *GatewayServer) handleListWorkspaceApps(w http.ResponseWriter, r *http.Request) {
	apps, err := gs.apps.ReadWorkspaceApps(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (gs *GatewayServer) handleAddTrash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []model.TrashRevision `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := gs.trash.Add(r.Context(), req.Items); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gs *GatewayServer) handlePutbackTrash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := gs.trash.Putback(r.Context(), req.IDs); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gs *GatewayServer) handleDeleteTrash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := gs.trash.Delete(r.Context(), req.IDs); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps controller errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, persistence.ErrPositionOutOfRange),
		errors.Is(err, model.ErrEmptyAppName),
		errors.Is(err, model.ErrAppNameTooLong),
		errors.Is(err, model.ErrEmptyWorkspaceID),
		errors.Is(err, model.ErrEmptyAppID):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  status,
	})
}

// getAllowedOrigins returns the list of allowed CORS origins.
// Configurable via FOLDERIUM_ALLOWED_ORIGINS environment variable (comma-separated).
// Defaults to localhost origins only for security.
func getAllowedOrigins() []string {
	envOrigins := os.Getenv("FOLDERIUM_ALLOWED_ORIGINS")
	if envOrigins != "" {
		origins := strings.Split(envOrigins, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}
	// Default to localhost only - secure by default
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost",
	}
}
