package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const upsertChallengeByContent = `-- name: UpsertChallengeByContent :exec
INSERT INTO challenges (
    project_id, path, sha, tree_sha, language, url, content, loc
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (content_hash) DO UPDATE SET
    project_id = EXCLUDED.project_id,
    path       = EXCLUDED.path,
    sha        = EXCLUDED.sha,
    tree_sha   = EXCLUDED.tree_sha,
    language   = EXCLUDED.language,
    url        = EXCLUDED.url,
    loc        = EXCLUDED.loc,
    updated_at = now()
WHERE (challenges.project_id, challenges.path, challenges.sha, challenges.tree_sha, challenges.language, challenges.url, challenges.loc)
    IS DISTINCT FROM (EXCLUDED.project_id, EXCLUDED.path, EXCLUDED.sha, EXCLUDED.tree_sha, EXCLUDED.language, EXCLUDED.url, EXCLUDED.loc)
`

type UpsertChallengeByContentParams = InsertChallengeParams

// UpsertChallengesByContent inserts challenges keyed by their content. Rows
// whose content already exists are updated only when a column differs. The
// returned count covers inserted and changed rows; unchanged rows count zero.
// All rows are sent as one batch, which pgx runs in an implicit transaction.
func (q *Queries) UpsertChallengesByContent(ctx context.Context, arg []UpsertChallengeByContentParams) (int64, error) {
	if len(arg) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, a := range arg {
		batch.Queue(upsertChallengeByContent,
			a.ProjectID,
			a.Path,
			a.Sha,
			a.TreeSha,
			a.Language,
			a.Url,
			a.Content,
			a.Loc,
		)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	var affected int64
	for range arg {
		tag, err := br.Exec()
		if err != nil {
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, br.Close()
}
