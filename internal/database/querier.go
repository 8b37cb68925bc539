package database

import (
	"context"
)

type Querier interface {
	CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error)
	GetChallengeByPathAndProject(ctx context.Context, arg GetChallengeByPathAndProjectParams) (Challenge, error)
	GetProjectByFullName(ctx context.Context, fullName string) (Project, error)
	GetRandomChallenge(ctx context.Context, language string) (Challenge, error)
	InsertChallenge(ctx context.Context, arg InsertChallengeParams) (Challenge, error)
	ListChallengeLanguages(ctx context.Context) ([]string, error)
	ListChallengesByProject(ctx context.Context, projectID int64) ([]Challenge, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpsertChallengesByContent(ctx context.Context, arg []UpsertChallengeByContentParams) (int64, error)
}

var _ Querier = (*Queries)(nil)
