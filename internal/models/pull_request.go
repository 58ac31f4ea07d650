package models

import "time"

// PRState is the lifecycle state of a pull request.
type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateClosed PRState = "CLOSED"
	PRStateMerged PRState = "MERGED"
)

// PullRequest belongs to exactly one repository, identified by Repo + Number.
type PullRequest struct {
	Repo       string    `json:"repo"`
	RepoURL    string    `json:"repo_url"`
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	State      PRState   `json:"state"`
	BaseBranch string    `json:"base_branch"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	MergedAt   time.Time `json:"merged_at,omitempty"`
	URL        string    `json:"url"`
}
