package models

import "time"

// Commit belongs to exactly one repository, identified by Repo + SHA.
type Commit struct {
	Repo        string    `json:"repo"`
	RepoURL     string    `json:"repo_url"`
	SHA         string    `json:"sha"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email,omitempty"`
	AuthorLogin string    `json:"author_login,omitempty"`
	AuthoredAt  time.Time `json:"authored_at"`
	Branch      string    `json:"branch"`
	URL         string    `json:"url"`
}
