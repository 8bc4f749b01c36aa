package cloud

import (
	"context"
	"errors"

	"github.com/footprintai/folderium/internal/model"
)

// ErrNetwork is returned when the cloud service could not be reached. Callers
// distinguish it from a rejected request: a network failure may be retried,
// a rejection will not succeed on retry.
var ErrNetwork = errors.New("cloud service unreachable")

// Service is the remote folder backend. Every call carries the caller's
// bearer token; the backend enforces authorization on its side.
//
// CreateApp is authoritative for app ids: the local store only ever records
// ids minted by the backend.
type Service interface {
	CreateApp(ctx context.Context, token string, params model.CreateAppParams) (model.AppRevision, error)
	ReadApp(ctx context.Context, token string, appID string) (*model.AppRevision, error)
	UpdateApp(ctx context.Context, token string, params model.UpdateAppParams) error
	DeleteApp(ctx context.Context, token string, appID string) error
}
