// Package walker enumerates a repository tree depth-first and hands every
// matched, fetched and normalized blob to a caller-supplied visitor.
package walker

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"challenge-crawler/internal/model"
	"challenge-crawler/internal/normalize"
)

// DefaultDepthLimit bounds the number of tree nodes listed in one walk.
const DefaultDepthLimit = 300

// TreeLister lists the direct children of a tree.
type TreeLister interface {
	ListTree(ctx context.Context, owner, name, sha string) (string, []model.TreeNode, error)
}

// ContentFetcher retrieves the decoded content of a blob.
type ContentFetcher interface {
	Fetch(ctx context.Context, blobURL string) (string, error)
}

// PathFilter gates blobs by path.
type PathFilter interface {
	Match(path string) bool
}

// VisitFunc receives each matched file. A returned error is logged and
// counted; it never stops the walk.
type VisitFunc func(ctx context.Context, f model.File) error

// Stats summarizes one walk.
type Stats struct {
	TreesVisited int
	BlobsSeen    int
	Matched      int
	FetchFailed  int
	VisitFailed  int
	Truncated    bool
}

// Walker drives a depth-first traversal.
type Walker struct {
	lister     TreeLister
	fetcher    ContentFetcher
	logger     *slog.Logger
	depthLimit int
}

// New creates a Walker. A non-positive depthLimit falls back to DefaultDepthLimit.
func New(lister TreeLister, fetcher ContentFetcher, logger *slog.Logger, depthLimit int) *Walker {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	return &Walker{
		lister:     lister,
		fetcher:    fetcher,
		logger:     logger,
		depthLimit: depthLimit,
	}
}

// walkState is shared by every recursive call of one Walk. The visited
// counter only grows; it counts tree listings across the whole walk, not
// nesting depth.
type walkState struct {
	owner, name string
	filter      PathFilter
	visit       VisitFunc
	stats       Stats
}

// Walk traverses the tree rooted at rootSHA (a SHA or branch name). Fetch
// failures are skipped; listing failures and context cancellation abort.
func (w *Walker) Walk(ctx context.Context, owner, name, rootSHA string, filter PathFilter, visit VisitFunc) (Stats, error) {
	st := &walkState{owner: owner, name: name, filter: filter, visit: visit}
	err := w.walkTree(ctx, st, rootSHA, "")
	return st.stats, err
}

// walkTree lists one tree. Entry paths are relative to their tree, so prefix
// carries the tree's own path from the repository root.
func (w *Walker) walkTree(ctx context.Context, st *walkState, sha, prefix string) error {
	if st.stats.TreesVisited > w.depthLimit {
		if !st.stats.Truncated {
			w.logger.Warn("Tree depth budget exhausted, skipping remaining subtrees",
				"owner", st.owner, "repo", st.name, "limit", w.depthLimit)
		}
		st.stats.Truncated = true
		return nil
	}
	st.stats.TreesVisited++

	treeSHA, nodes, err := w.lister.ListTree(ctx, st.owner, st.name, sha)
	if err != nil {
		return fmt.Errorf("listing tree %s: %w", sha, err)
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if prefix != "" {
			node.Path = path.Join(prefix, node.Path)
		}

		if node.Type == model.NodeTypeTree {
			if node.SHA == "" {
				continue
			}
			if err := w.walkTree(ctx, st, node.SHA, node.Path); err != nil {
				return err
			}
			continue
		}
		if node.Type != model.NodeTypeBlob {
			// Submodule commits and the like.
			continue
		}

		st.stats.BlobsSeen++
		if !st.filter.Match(node.Path) {
			w.logger.Debug("File does not match the patterns", "path", node.Path)
			continue
		}
		st.stats.Matched++

		w.processBlob(ctx, st, node, treeSHA)
	}
	return nil
}

func (w *Walker) processBlob(ctx context.Context, st *walkState, node model.TreeNode, treeSHA string) {
	logger := w.logger.With("path", node.Path, "sha", node.SHA)

	raw, err := w.fetcher.Fetch(ctx, node.URL)
	if err != nil {
		st.stats.FetchFailed++
		logger.Error("Failed to fetch file contents, skipping", "error", err)
		return
	}

	content, loc := normalize.Normalize(raw)
	file := model.File{
		Node:    node,
		TreeSHA: treeSHA,
		Content: content,
		LOC:     loc,
	}
	if err := st.visit(ctx, file); err != nil {
		st.stats.VisitFailed++
		logger.Error("Failed to process file, skipping", "error", err)
	}
}
