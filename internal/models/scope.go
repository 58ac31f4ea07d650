package models

import (
	"fmt"
	"sort"
	"strings"
)

// FetchScope is the resolved set of fetch targets plus the active limits. Its
// Key acts as the cache key for one dashboard dataset.
type FetchScope struct {
	// User is the login of the authenticated user, or empty when it has not
	// been resolved yet (the aggregator targets the viewer either way).
	User string `json:"user"`

	// Organizations lists the organization logins to fetch in addition to the
	// user. A nil slice means "all organizations the credential belongs to";
	// an empty non-nil slice means user-only.
	Organizations []string `json:"organizations"`

	RepoLimit   int `json:"repo_limit"`
	PRLimit     int `json:"pr_limit"`
	CommitLimit int `json:"commit_limit"`
}

// AllOrganizations reports whether organization membership should be
// discovered instead of taken from the configured list.
func (s FetchScope) AllOrganizations() bool {
	return s.Organizations == nil
}

// Key returns a deterministic cache key for the scope. Organization order does
// not matter; the unset and empty organization lists produce distinct keys.
func (s FetchScope) Key() string {
	orgs := "*"
	if s.Organizations != nil {
		sorted := make([]string, len(s.Organizations))
		copy(sorted, s.Organizations)
		sort.Strings(sorted)
		orgs = strings.Join(sorted, ",")
	}
	return fmt.Sprintf("user=%s|orgs=%s|repos=%d|prs=%d|commits=%d",
		s.User, orgs, s.RepoLimit, s.PRLimit, s.CommitLimit)
}
