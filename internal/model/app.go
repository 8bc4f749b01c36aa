package model

// AppRevision is the persisted record for an app: a named, ordered folder of
// documents inside a workspace. Position is dense within a workspace, so the
// positions of a workspace's apps always form the sequence 0..n-1.
type AppRevision struct {
	ID           string `json:"id"`
	WorkspaceID  string `json:"workspaceId"`
	Name         string `json:"name"`
	Desc         string `json:"desc"`
	ColorStyle   string `json:"colorStyle"`
	Position     int    `json:"position"`
	Version      int64  `json:"version"`
	CreateTime   int64  `json:"createTime"`
	ModifiedTime int64  `json:"modifiedTime"`
}

// App is the view projection published to UI subscribers and returned by the
// REST API.
type App struct {
	ID           string `json:"id"`
	WorkspaceID  string `json:"workspaceId"`
	Name         string `json:"name"`
	Desc         string `json:"desc"`
	ColorStyle   string `json:"colorStyle"`
	Position     int    `json:"position"`
	Version      int64  `json:"version"`
	CreateTime   int64  `json:"createTime"`
	ModifiedTime int64  `json:"modifiedTime"`
}

// View projects the revision to its UI representation.
func (r AppRevision) View() App {
	return App{
		ID:           r.ID,
		WorkspaceID:  r.WorkspaceID,
		Name:         r.Name,
		Desc:         r.Desc,
		ColorStyle:   r.ColorStyle,
		Position:     r.Position,
		Version:      r.Version,
		CreateTime:   r.CreateTime,
		ModifiedTime: r.ModifiedTime,
	}
}

// RepeatedApp is the payload of a workspace-level notification: the current
// list of visible apps in their persisted order.
type RepeatedApp struct {
	Items []App `json:"items"`
}
