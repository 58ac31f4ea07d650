package models

import "time"

// ActivityKind tags which variant an ActivityItem carries.
type ActivityKind string

const (
	ActivityPullRequest ActivityKind = "pull_request"
	ActivityCommit      ActivityKind = "commit"
)

// ActivityItem is the unified, time-ordered unit the stream merger emits:
// either a pull request or a commit, tagged with its source repository and a
// common sortable timestamp.
type ActivityItem struct {
	Kind      ActivityKind `json:"kind"`
	Repo      string       `json:"repo"`
	Timestamp time.Time    `json:"timestamp"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	URL       string       `json:"url"`

	// Ref carries the branch name for commits and the base branch for pull
	// requests.
	Ref string `json:"ref,omitempty"`

	PullRequest *PullRequest `json:"pull_request,omitempty"`
	Commit      *Commit      `json:"commit,omitempty"`
}
