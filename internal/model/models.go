// internal/model/models.go
package model

import "time"

// Tree node types as reported by the git trees API.
const (
	NodeTypeTree = "tree"
	NodeTypeBlob = "blob"
)

// ScanSpec describes one repository to crawl.
type ScanSpec struct {
	Repository     string   `mapstructure:"repository" yaml:"repository"`
	Patterns       []string `mapstructure:"patterns" yaml:"patterns"`
	MaxLinesOfCode int      `mapstructure:"max_loc" yaml:"max_loc"` // 0 means no limit
}

// RepositoryMetadata is the subset of GitHub repository details a scan needs.
type RepositoryMetadata struct {
	Owner         string
	Name          string
	Language      string
	HTMLURL       string
	Stars         int
	LicenseName   string
	OwnerAvatar   string
	DefaultBranch string
}

// TreeNode is one entry of a git tree listing.
type TreeNode struct {
	Path string
	Type string
	SHA  string
	URL  string
}

// File is a matched blob whose content has been fetched and normalized.
type File struct {
	Node    TreeNode
	TreeSHA string
	Content string
	LOC     int
}

// ScanResult summarizes one repository scan.
type ScanResult struct {
	Repository     string
	ProjectID      int64
	ProjectCreated bool
	TreesVisited   int
	Matched        int
	Created        int
	Existing       int
	Duplicates     int
	TooLong        int
	Failed         int
	Truncated      bool
	Duration       time.Duration
	Err            error
}
