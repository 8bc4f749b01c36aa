package cloud

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/footprintai/folderium/internal/model"
)

// LocalService is a self-hosted stand-in for the remote backend. It mints ids
// locally and accepts every request, which makes the daemon usable without a
// configured backend. Reads always defer to the local store, so ReadApp
// reports nothing.
type LocalService struct{}

// NewLocalService creates a backend-less cloud service.
func NewLocalService() *LocalService {
	return &LocalService{}
}

func (s *LocalService) CreateApp(ctx context.Context, token string, params model.CreateAppParams) (model.AppRevision, error) {
	now := time.Now().Unix()
	return model.AppRevision{
		ID:           uuid.New().String(),
		WorkspaceID:  params.WorkspaceID,
		Name:         params.Name,
		Desc:         params.Desc,
		ColorStyle:   params.ColorStyle,
		CreateTime:   now,
		ModifiedTime: now,
	}, nil
}

func (s *LocalService) ReadApp(ctx context.Context, token string, appID string) (*model.AppRevision, error) {
	return nil, nil
}

func (s *LocalService) UpdateApp(ctx context.Context, token string, params model.UpdateAppParams) error {
	return nil
}

func (s *LocalService) DeleteApp(ctx context.Context, token string, appID string) error {
	return nil
}
