package models

import "time"

// Repository is an immutable snapshot of a repository as seen by one fetch cycle.
// Repositories are unique by (Owner, Name) within a single AggregateResult.
type Repository struct {
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	NameWithOwner string    `json:"name_with_owner"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"default_branch"`
	IsPrivate     bool      `json:"is_private"`
	PushedAt      time.Time `json:"pushed_at"`
	// Scope is the login of the fetch target (user or organization) that
	// surfaced this repository.
	Scope string `json:"scope"`
}
