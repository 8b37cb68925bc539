// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"challenge-crawler/internal/database"
	custom_errors "challenge-crawler/internal/errors"
	"challenge-crawler/internal/language"
	"challenge-crawler/internal/metrics"
	"challenge-crawler/internal/model"
	"challenge-crawler/internal/pattern"
	"challenge-crawler/internal/walker"
)

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

func (r RepoIdentifier) String() string { return r.Owner + "/" + r.Name }

// MetadataSource resolves repository metadata.
type MetadataSource interface {
	GetRepository(ctx context.Context, owner, name string) (*model.RepositoryMetadata, error)
}

// TreeWalker enumerates matched files of a repository tree.
type TreeWalker interface {
	Walk(ctx context.Context, owner, name, rootSHA string, filter walker.PathFilter, visit walker.VisitFunc) (walker.Stats, error)
}

// Options tunes a Syncer.
type Options struct {
	// Number of repositories scanned at once. Values below 1 mean 1, which
	// keeps scans strictly sequential.
	Concurrency int
	// Zero runs a single pass.
	Interval time.Duration
	Metrics  *metrics.Metrics
}

type scanTarget struct {
	id     RepoIdentifier
	spec   model.ScanSpec
	filter *pattern.Filter
}

// Syncer scans the configured repositories and stores matching files as challenges.
type Syncer struct {
	db          database.Querier
	ghClient    MetadataSource
	walker      TreeWalker
	logger      *slog.Logger
	targets     []scanTarget
	concurrency int
	interval    time.Duration
	metrics     *metrics.Metrics
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(db database.Querier, ghClient MetadataSource, w TreeWalker, logger *slog.Logger, specs []model.ScanSpec, opts Options) (*Syncer, error) {
	targets, err := parseScanTargets(specs)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Syncer{
		db:          db,
		ghClient:    ghClient,
		walker:      w,
		logger:      logger,
		targets:     targets,
		concurrency: concurrency,
		interval:    opts.Interval,
		metrics:     opts.Metrics,
	}, nil
}

// Start runs a scan pass immediately and then on every interval until ctx is
// done. Without an interval it returns after the first pass.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("Starting syncer", "interval", s.interval.String(), "concurrency", s.concurrency, "repositories", len(s.targets))

	s.RunOnce(ctx) // Initial scan
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Syncer shutting down", "reason", ctx.Err())
			return
		}
	}
}

// RunOnce scans every configured repository. A failing repository is logged
// and recorded in its result; it never stops the others.
func (s *Syncer) RunOnce(ctx context.Context) []model.ScanResult {
	s.logger.Info("Starting new scan cycle")
	results := make([]model.ScanResult, len(s.targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, target := range s.targets {
		i, target := i, target
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = model.ScanResult{Repository: target.id.String(), Err: gctx.Err()}
				return nil
			}
			res, err := s.scan(gctx, target)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Failed to scan repository", "owner", target.id.Owner, "repo", target.id.Name, "error", err)
			}
			results[i] = res
			return nil
		})
	}

	_ = g.Wait()

	var created, failed int
	for _, r := range results {
		created += r.Created
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("Scan cycle finished", "repositories", len(results), "failed_repositories", failed, "challenges_created", created)
	return results
}

// ScanRepo runs one full scan for spec.
func (s *Syncer) ScanRepo(ctx context.Context, spec model.ScanSpec) (model.ScanResult, error) {
	targets, err := parseScanTargets([]model.ScanSpec{spec})
	if err != nil {
		return model.ScanResult{Repository: spec.Repository, Err: err}, err
	}
	return s.scan(ctx, targets[0])
}

func (s *Syncer) scan(ctx context.Context, target scanTarget) (model.ScanResult, error) {
	start := time.Now()
	result := model.ScanResult{Repository: target.id.String()}

	err := s.scanRepo(ctx, target, &result)
	result.Duration = time.Since(start)
	result.Err = err
	s.metrics.ObserveScan(result)
	return result, err
}

// scanRepo handles the full scan logic for a single repository.
func (s *Syncer) scanRepo(ctx context.Context, target scanTarget, result *model.ScanResult) error {
	id := target.id
	logger := s.logger.With("owner", id.Owner, "repo", id.Name)
	logger.Info("Scanning repository")

	meta, err := s.ghClient.GetRepository(ctx, id.Owner, id.Name)
	if err != nil {
		return &custom_errors.MetadataUnavailableError{Repo: id.String(), Err: err}
	}

	project, created, err := s.resolveProject(ctx, target.spec.Repository, meta)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}
	result.ProjectID = project.ID
	result.ProjectCreated = created
	logger = logger.With("project_id", project.ID)

	visit := func(ctx context.Context, f model.File) error {
		return s.persistChallenge(ctx, logger, target.spec, project, f, result)
	}

	stats, err := s.walker.Walk(ctx, id.Owner, id.Name, meta.DefaultBranch, target.filter, visit)
	result.TreesVisited = stats.TreesVisited
	result.Matched = stats.Matched
	result.Failed = stats.FetchFailed + stats.VisitFailed
	result.Truncated = stats.Truncated
	if err != nil {
		return fmt.Errorf("walking %s: %w", meta.DefaultBranch, err)
	}

	logger.Info("Repository scan finished",
		"trees", result.TreesVisited,
		"matched", result.Matched,
		"created", result.Created,
		"existing", result.Existing,
		"duplicates", result.Duplicates,
		"too_long", result.TooLong,
		"failed", result.Failed,
		"truncated", result.Truncated,
	)
	return nil
}

// resolveProject returns the stored project for fullName, creating it from
// meta when absent. An existing project is reused as is.
func (s *Syncer) resolveProject(ctx context.Context, fullName string, meta *model.RepositoryMetadata) (database.Project, bool, error) {
	existing, err := s.db.GetProjectByFullName(ctx, fullName)
	if err == nil {
		s.logger.Info("Project already exists, reusing it", "project", fullName, "project_id", existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Project{}, false, err
	}

	project, err := s.db.CreateProject(ctx, database.CreateProjectParams{
		FullName:      fullName,
		Language:      language.Code(meta.Language),
		HtmlUrl:       meta.HTMLURL,
		Stars:         int32(meta.Stars),
		LicenseName:   meta.LicenseName,
		OwnerAvatar:   meta.OwnerAvatar,
		DefaultBranch: meta.DefaultBranch,
		SyncedSha:     meta.DefaultBranch,
	})
	if database.IsUniqueViolation(err) {
		// Created by a concurrent scan between the lookup and the insert.
		existing, err := s.db.GetProjectByFullName(ctx, fullName)
		return existing, false, err
	}
	if err != nil {
		return database.Project{}, false, err
	}

	s.logger.Info("Project created", "project", fullName, "project_id", project.ID)
	return project, true, nil
}

// persistChallenge applies the LOC gate and stores f unless a challenge with
// the same path already exists for the project.
func (s *Syncer) persistChallenge(ctx context.Context, logger *slog.Logger, spec model.ScanSpec, project database.Project, f model.File, result *model.ScanResult) error {
	logger = logger.With("path", f.Node.Path)

	if spec.MaxLinesOfCode > 0 && f.LOC > spec.MaxLinesOfCode {
		logger.Debug("File exceeds the max LOC", "loc", f.LOC, "max_loc", spec.MaxLinesOfCode)
		result.TooLong++
		return nil
	}

	existing, err := s.db.GetChallengeByPathAndProject(ctx, database.GetChallengeByPathAndProjectParams{
		Path:      f.Node.Path,
		ProjectID: project.ID,
	})
	if err == nil {
		logger.Debug("Challenge already exists", "challenge_id", existing.ID)
		result.Existing++
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("looking up challenge: %w", err)
	}

	challenge, err := s.db.InsertChallenge(ctx, database.InsertChallengeParams{
		ProjectID: project.ID,
		Path:      f.Node.Path,
		Sha:       f.Node.SHA,
		TreeSha:   f.TreeSHA,
		Language:  project.Language,
		Url:       challengeURL(project, f.Node.Path),
		Content:   f.Content,
		Loc:       int32(f.LOC),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		logger.Debug("Challenge inserted concurrently, skipping")
		result.Existing++
		return nil
	case database.IsUniqueViolation(err):
		logger.Info("Identical content already stored as another challenge, skipping")
		result.Duplicates++
		return nil
	case err != nil:
		return fmt.Errorf("creating challenge: %w", err)
	}

	logger.Info("Challenge created", "challenge_id", challenge.ID, "loc", f.LOC)
	result.Created++
	return nil
}

// challengeURL links to the file on the project's default branch.
func challengeURL(project database.Project, path string) string {
	return strings.TrimSuffix(project.HtmlUrl, "/") + "/blob/" + project.DefaultBranch + "/" + path
}

func parseScanTargets(specs []model.ScanSpec) ([]scanTarget, error) {
	targets := make([]scanTarget, 0, len(specs))
	for _, spec := range specs {
		id, err := parseRepoIdentifier(spec.Repository)
		if err != nil {
			return nil, err
		}
		targets = append(targets, scanTarget{id: id, spec: spec, filter: pattern.New(spec.Patterns)})
	}
	return targets, nil
}

func parseRepoIdentifier(r string) (RepoIdentifier, error) {
	parts := strings.Split(r, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: r}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}
