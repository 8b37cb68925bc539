package database

import (
	"context"
)

const challengeColumns = `id, project_id, path, sha, tree_sha, language, url, content, content_hash, loc, created_at, updated_at`

const getChallengeByPathAndProject = `-- name: GetChallengeByPathAndProject :one
SELECT ` + challengeColumns + ` FROM challenges
WHERE path = $1 AND project_id = $2
`

type GetChallengeByPathAndProjectParams struct {
	Path      string `json:"path"`
	ProjectID int64  `json:"project_id"`
}

func (q *Queries) GetChallengeByPathAndProject(ctx context.Context, arg GetChallengeByPathAndProjectParams) (Challenge, error) {
	row := q.db.QueryRow(ctx, getChallengeByPathAndProject, arg.Path, arg.ProjectID)
	return scanChallenge(row)
}

const insertChallenge = `-- name: InsertChallenge :one
INSERT INTO challenges (
    project_id, path, sha, tree_sha, language, url, content, loc
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (path, project_id) DO NOTHING
RETURNING ` + challengeColumns

type InsertChallengeParams struct {
	ProjectID int64  `json:"project_id"`
	Path      string `json:"path"`
	Sha       string `json:"sha"`
	TreeSha   string `json:"tree_sha"`
	Language  string `json:"language"`
	Url       string `json:"url"`
	Content   string `json:"content"`
	Loc       int32  `json:"loc"`
}

// InsertChallenge returns pgx.ErrNoRows when a challenge with the same
// (path, project_id) already exists.
func (q *Queries) InsertChallenge(ctx context.Context, arg InsertChallengeParams) (Challenge, error) {
	row := q.db.QueryRow(ctx, insertChallenge,
		arg.ProjectID,
		arg.Path,
		arg.Sha,
		arg.TreeSha,
		arg.Language,
		arg.Url,
		arg.Content,
		arg.Loc,
	)
	return scanChallenge(row)
}

const listChallengesByProject = `-- name: ListChallengesByProject :many
SELECT ` + challengeColumns + ` FROM challenges
WHERE project_id = $1
ORDER BY path
`

func (q *Queries) ListChallengesByProject(ctx context.Context, projectID int64) ([]Challenge, error) {
	rows, err := q.db.Query(ctx, listChallengesByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Challenge{}
	for rows.Next() {
		i, err := scanChallenge(rows)
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

const getRandomChallenge = `-- name: GetRandomChallenge :one
SELECT ` + challengeColumns + ` FROM challenges
WHERE $1::text = '' OR LOWER(language) = LOWER($1::text)
ORDER BY RANDOM()
LIMIT 1
`

// GetRandomChallenge picks any challenge when language is empty.
func (q *Queries) GetRandomChallenge(ctx context.Context, language string) (Challenge, error) {
	row := q.db.QueryRow(ctx, getRandomChallenge, language)
	return scanChallenge(row)
}

const listChallengeLanguages = `-- name: ListChallengeLanguages :many
SELECT DISTINCT language FROM challenges
WHERE language <> ''
ORDER BY language
`

func (q *Queries) ListChallengeLanguages(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listChallengeLanguages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var language string
		if err := rows.Scan(&language); err != nil {
			return nil, err
		}
		items = append(items, language)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanChallenge(row scanner) (Challenge, error) {
	var i Challenge
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Path,
		&i.Sha,
		&i.TreeSha,
		&i.Language,
		&i.Url,
		&i.Content,
		&i.ContentHash,
		&i.Loc,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
