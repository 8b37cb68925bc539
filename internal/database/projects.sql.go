package database

import (
	"context"
)

const projectColumns = `id, full_name, language, html_url, stars, license_name, owner_avatar, default_branch, synced_sha, created_at`

const getProjectByFullName = `-- name: GetProjectByFullName :one
SELECT ` + projectColumns + ` FROM projects
WHERE full_name = $1
`

func (q *Queries) GetProjectByFullName(ctx context.Context, fullName string) (Project, error) {
	row := q.db.QueryRow(ctx, getProjectByFullName, fullName)
	return scanProject(row)
}

const createProject = `-- name: CreateProject :one
INSERT INTO projects (
    full_name, language, html_url, stars, license_name, owner_avatar, default_branch, synced_sha
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING ` + projectColumns

type CreateProjectParams struct {
	FullName      string `json:"full_name"`
	Language      string `json:"language"`
	HtmlUrl       string `json:"html_url"`
	Stars         int32  `json:"stars"`
	LicenseName   string `json:"license_name"`
	OwnerAvatar   string `json:"owner_avatar"`
	DefaultBranch string `json:"default_branch"`
	SyncedSha     string `json:"synced_sha"`
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, createProject,
		arg.FullName,
		arg.Language,
		arg.HtmlUrl,
		arg.Stars,
		arg.LicenseName,
		arg.OwnerAvatar,
		arg.DefaultBranch,
		arg.SyncedSha,
	)
	return scanProject(row)
}

const listProjects = `-- name: ListProjects :many
SELECT ` + projectColumns + ` FROM projects
ORDER BY full_name
`

func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Project{}
	for rows.Next() {
		i, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (Project, error) {
	var i Project
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Language,
		&i.HtmlUrl,
		&i.Stars,
		&i.LicenseName,
		&i.OwnerAvatar,
		&i.DefaultBranch,
		&i.SyncedSha,
		&i.CreatedAt,
	)
	return i, err
}
