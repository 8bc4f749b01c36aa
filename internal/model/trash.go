package model

// TrashKind tags the entity type a trash entry refers to. The trash set is
// shared across entity kinds; consumers filter to the kinds they own.
type TrashKind string

const (
	TrashKindApp  TrashKind = "app"
	TrashKindView TrashKind = "view"
)

// TrashRevision is a persisted trash entry: the id of a hidden entity plus its
// kind. The referenced row itself is retained until the trash is emptied.
type TrashRevision struct {
	ID         string    `json:"id"`
	Kind       TrashKind `json:"kind"`
	CreateTime int64     `json:"createTime"`
}
