package database

import (
	"time"
)

type Project struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"full_name"`
	Language      string    `json:"language"`
	HtmlUrl       string    `json:"html_url"`
	Stars         int32     `json:"stars"`
	LicenseName   string    `json:"license_name"`
	OwnerAvatar   string    `json:"owner_avatar"`
	DefaultBranch string    `json:"default_branch"`
	SyncedSha     string    `json:"synced_sha"`
	CreatedAt     time.Time `json:"created_at"`
}

type Challenge struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Path        string    `json:"path"`
	Sha         string    `json:"sha"`
	TreeSha     string    `json:"tree_sha"`
	Language    string    `json:"language"`
	Url         string    `json:"url"`
	Content     string    `json:"content"`
	ContentHash string    `json:"-"`
	Loc         int32     `json:"loc"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
