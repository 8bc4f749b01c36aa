package model

import (
	"errors"
	"strings"
	"time"
)

// MaxAppNameLength bounds user-supplied app names.
const MaxAppNameLength = 256

var (
	// ErrEmptyAppName is returned when an app name is blank
	ErrEmptyAppName = errors.New("app name may not be empty")

	// ErrAppNameTooLong is returned when an app name exceeds MaxAppNameLength
	ErrAppNameTooLong = errors.New("app name too long")

	// ErrEmptyWorkspaceID is returned when a workspace id is blank
	ErrEmptyWorkspaceID = errors.New("workspace id may not be empty")

	// ErrEmptyAppID is returned when an app id is blank
	ErrEmptyAppID = errors.New("app id may not be empty")
)

// CreateAppParams are the inputs required to mint a new app. The app id is
// assigned by the cloud service, never locally.
type CreateAppParams struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Desc        string `json:"desc"`
	ColorStyle  string `json:"colorStyle"`
}

// Validate checks the params before they are sent to the cloud service.
func (p CreateAppParams) Validate() error {
	if strings.TrimSpace(p.WorkspaceID) == "" {
		return ErrEmptyWorkspaceID
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrEmptyAppName
	}
	if len(name) > MaxAppNameLength {
		return ErrAppNameTooLong
	}
	return nil
}

// UpdateAppParams identifies an app and names only the fields to modify.
// Trash membership is owned by the trash subsystem and is deliberately not
// part of this changeset.
type UpdateAppParams struct {
	AppID      string  `json:"appId"`
	Name       *string `json:"name,omitempty"`
	Desc       *string `json:"desc,omitempty"`
	ColorStyle *string `json:"colorStyle,omitempty"`
}

// Validate checks the params before building a changeset.
func (p UpdateAppParams) Validate() error {
	if strings.TrimSpace(p.AppID) == "" {
		return ErrEmptyAppID
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrEmptyAppName
		}
		if len(name) > MaxAppNameLength {
			return ErrAppNameTooLong
		}
	}
	return nil
}

// AppChangeset is the sparse update applied by the persistence layer. Only
// non-nil fields are written; ModifiedTime is always refreshed.
type AppChangeset struct {
	AppID        string
	Name         *string
	Desc         *string
	ColorStyle   *string
	ModifiedTime int64
}

// NewAppChangeset builds a changeset from update params, stamping the
// modification time.
func NewAppChangeset(params UpdateAppParams) AppChangeset {
	return AppChangeset{
		AppID:        params.AppID,
		Name:         params.Name,
		Desc:         params.Desc,
		ColorStyle:   params.ColorStyle,
		ModifiedTime: time.Now().Unix(),
	}
}
