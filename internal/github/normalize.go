package github

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cfech/github-dashboard/internal/models"
	"github.com/cfech/github-dashboard/internal/utils"
)

// Raw connection shapes as the GraphQL API returns them. These exist only at
// the normalization boundary; everything past it works with models records.

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type repositoryNode struct {
	Name             string    `json:"name"`
	NameWithOwner    string    `json:"nameWithOwner"`
	URL              string    `json:"url"`
	PushedAt         time.Time `json:"pushedAt"`
	IsPrivate        bool      `json:"isPrivate"`
	DefaultBranchRef *struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
}

type repositoryConnection struct {
	Nodes    []repositoryNode `json:"nodes"`
	PageInfo pageInfo         `json:"pageInfo"`
}

type viewerRepositoriesData struct {
	Viewer struct {
		Login        string               `json:"login"`
		Repositories repositoryConnection `json:"repositories"`
	} `json:"viewer"`
}

type viewerOrganizationsData struct {
	Viewer struct {
		Organizations struct {
			Nodes []struct {
				Login string `json:"login"`
			} `json:"nodes"`
			PageInfo pageInfo `json:"pageInfo"`
		} `json:"organizations"`
	} `json:"viewer"`
}

type organizationRepositoriesData struct {
	Organization *struct {
		Repositories repositoryConnection `json:"repositories"`
	} `json:"organization"`
}

type pullRequestNode struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	MergedAt    *time.Time `json:"mergedAt"`
	BaseRefName string     `json:"baseRefName"`
	Author      *struct {
		Login string `json:"login"`
	} `json:"author"`
}

type commitNode struct {
	OID             string    `json:"oid"`
	MessageHeadline string    `json:"messageHeadline"`
	CommittedDate   time.Time `json:"committedDate"`
	URL             string    `json:"url"`
	Author          *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		User  *struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"author"`
}

type repositoryDetailNode struct {
	NameWithOwner string `json:"nameWithOwner"`
	URL           string `json:"url"`
	PullRequests  struct {
		Nodes []pullRequestNode `json:"nodes"`
	} `json:"pullRequests"`
	DefaultBranchRef *struct {
		Name   string `json:"name"`
		Target struct {
			History struct {
				Nodes []commitNode `json:"nodes"`
			} `json:"history"`
		} `json:"target"`
	} `json:"defaultBranchRef"`
}

// Sentinels for missing optional fields.
const (
	unknownAuthor    = "unknown"
	missingMessage   = "No message"
	fallbackBranch   = "main"
	missingNameLog   = "Skipping repository node with missing name"
	invalidNameLog   = "Skipping repository node with unparseable name"
	missingFieldsLog = "Skipping record with missing mandatory fields"
)

// normalizeRepositoryNodes flattens repository nodes into Repository records.
// A node missing its mandatory name is dropped with a logged skip; one bad
// node never fails the batch.
func normalizeRepositoryNodes(nodes []repositoryNode, scope string, logger *logrus.Logger) []models.Repository {
	repos := make([]models.Repository, 0, len(nodes))
	for _, node := range nodes {
		if node.NameWithOwner == "" {
			logger.WithField("scope", scope).Warn(missingNameLog)
			continue
		}
		owner, name, err := utils.SplitNameWithOwner(node.NameWithOwner)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"scope": scope,
				"name":  node.NameWithOwner,
			}).Warn(invalidNameLog)
			continue
		}

		branch := fallbackBranch
		if node.DefaultBranchRef != nil && node.DefaultBranchRef.Name != "" {
			branch = node.DefaultBranchRef.Name
		}

		repos = append(repos, models.Repository{
			Owner:         owner,
			Name:          name,
			NameWithOwner: node.NameWithOwner,
			URL:           node.URL,
			DefaultBranch: branch,
			IsPrivate:     node.IsPrivate,
			PushedAt:      node.PushedAt,
			Scope:         scope,
		})
	}
	return repos
}

// normalizePullRequests flattens one repository's pull request connection.
func normalizePullRequests(repo *repositoryDetailNode) []models.PullRequest {
	prs := make([]models.PullRequest, 0, len(repo.PullRequests.Nodes))
	for _, node := range repo.PullRequests.Nodes {
		author := unknownAuthor
		if node.Author != nil && node.Author.Login != "" {
			author = node.Author.Login
		}

		pr := models.PullRequest{
			Repo:       repo.NameWithOwner,
			RepoURL:    repo.URL,
			Number:     node.Number,
			Title:      node.Title,
			Author:     author,
			State:      models.PRState(node.State),
			BaseBranch: node.BaseRefName,
			CreatedAt:  node.CreatedAt,
			UpdatedAt:  node.UpdatedAt,
			URL:        node.URL,
		}
		if node.MergedAt != nil {
			pr.MergedAt = *node.MergedAt
		}
		prs = append(prs, pr)
	}
	return prs
}

// normalizeCommits flattens one repository's default-branch commit history.
// Repositories without a default branch (empty repos) yield no commits.
func normalizeCommits(repo *repositoryDetailNode) []models.Commit {
	if repo.DefaultBranchRef == nil {
		return nil
	}

	branch := repo.DefaultBranchRef.Name
	if branch == "" {
		branch = fallbackBranch
	}

	nodes := repo.DefaultBranchRef.Target.History.Nodes
	commits := make([]models.Commit, 0, len(nodes))
	for _, node := range nodes {
		message := node.MessageHeadline
		if message == "" {
			message = missingMessage
		}

		commit := models.Commit{
			Repo:       repo.NameWithOwner,
			RepoURL:    repo.URL,
			SHA:        node.OID,
			Message:    message,
			AuthorName: unknownAuthor,
			AuthoredAt: node.CommittedDate,
			Branch:     branch,
			URL:        node.URL,
		}
		if node.Author != nil {
			if node.Author.Name != "" {
				commit.AuthorName = node.Author.Name
			}
			commit.AuthorEmail = node.Author.Email
			if node.Author.User != nil {
				commit.AuthorLogin = node.Author.User.Login
			}
		}
		commits = append(commits, commit)
	}
	return commits
}

// normalizeBulkRepository flattens one aliased repository block from a bulk
// query into its pull request and commit records. A block missing its
// mandatory name is dropped entirely with a logged skip.
func normalizeBulkRepository(repo *repositoryDetailNode, logger *logrus.Logger) ([]models.PullRequest, []models.Commit) {
	if repo == nil {
		return nil, nil
	}
	if repo.NameWithOwner == "" {
		logger.Warn(missingFieldsLog)
		return nil, nil
	}
	return normalizePullRequests(repo), normalizeCommits(repo)
}
