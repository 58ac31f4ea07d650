package github

import (
	"fmt"
	"strings"

	"github.com/cfech/github-dashboard/internal/utils"
)

// Query is a GraphQL document plus its variables, ready for the transport.
type Query struct {
	Document  string
	Variables map[string]interface{}
}

// maxPageSize is the largest page the GitHub GraphQL API serves per connection.
const maxPageSize = 100

// repositoryFields are exactly the repository fields the normalizer consumes.
const repositoryFields = `
        name
        nameWithOwner
        url
        pushedAt
        isPrivate
        defaultBranchRef {
            name
        }`

// pullRequestFields are exactly the pull request fields the normalizer consumes.
const pullRequestFields = `
        number
        title
        url
        state
        createdAt
        updatedAt
        mergedAt
        baseRefName
        author {
            login
        }`

// commitFields are exactly the commit fields the normalizer consumes.
const commitFields = `
        oid
        messageHeadline
        committedDate
        author {
            name
            email
            user {
                login
            }
        }
        url`

// clampLimit bounds a configured fetch limit to [1, maxPageSize].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// cursorVariable maps an empty pagination cursor to a null GraphQL variable.
func cursorVariable(after string) interface{} {
	if after == "" {
		return nil
	}
	return after
}

// ViewerRepositoriesQuery lists repositories the authenticated user is
// affiliated with, most recently pushed first.
func ViewerRepositoriesQuery(first int, after string) Query {
	document := fmt.Sprintf(`
query($endCursor: String) {
  viewer {
    login
    repositories(
      first: %d,
      after: $endCursor,
      affiliations: [OWNER, COLLABORATOR, ORGANIZATION_MEMBER],
      orderBy: {field: PUSHED_AT, direction: DESC}
    ) {
      nodes {%s
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`, clampLimit(first), repositoryFields)

	return Query{
		Document:  document,
		Variables: map[string]interface{}{"endCursor": cursorVariable(after)},
	}
}

// ViewerOrganizationsQuery lists the logins of every organization the
// authenticated user belongs to.
func ViewerOrganizationsQuery(after string) Query {
	document := `
query($endCursor: String) {
  viewer {
    organizations(first: 100, after: $endCursor) {
      nodes {
        login
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

	return Query{
		Document:  document,
		Variables: map[string]interface{}{"endCursor": cursorVariable(after)},
	}
}

// OrganizationRepositoriesQuery lists one organization's repositories, most
// recently pushed first.
func OrganizationRepositoriesQuery(login string, first int, after string) Query {
	document := fmt.Sprintf(`
query($orgLogin: String!, $endCursor: String) {
  organization(login: $orgLogin) {
    repositories(
      first: %d,
      after: $endCursor,
      orderBy: {field: PUSHED_AT, direction: DESC}
    ) {
      nodes {%s
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`, clampLimit(first), repositoryFields)

	return Query{
		Document: document,
		Variables: map[string]interface{}{
			"orgLogin":  login,
			"endCursor": cursorVariable(after),
		},
	}
}

// BulkRepositoryDataQuery fetches pull requests and default-branch commit
// history for several repositories in a single round trip, one alias per
// repository over a shared fragment. Names that are not in owner/name form are
// skipped.
func BulkRepositoryDataQuery(names []string, prLimit, commitLimit int) Query {
	var aliases []string
	for i, nameWithOwner := range names {
		owner, name, err := utils.SplitNameWithOwner(nameWithOwner)
		if err != nil {
			continue
		}
		aliases = append(aliases, fmt.Sprintf(
			"    repo%d: repository(owner: %q, name: %q) {\n        ...repositoryDataFields\n    }",
			i, owner, name))
	}

	document := fmt.Sprintf(`
query {
%s
}

fragment repositoryDataFields on Repository {
    nameWithOwner
    url
    pullRequests(
      states: [OPEN, CLOSED, MERGED],
      first: %d,
      orderBy: {field: UPDATED_AT, direction: DESC}
    ) {
      nodes {%s
      }
    }
    defaultBranchRef {
      name
      target {
        ... on Commit {
          history(first: %d) {
            nodes {%s
            }
          }
        }
      }
    }
}`, strings.Join(aliases, "\n"), clampLimit(prLimit), pullRequestFields, clampLimit(commitLimit), commitFields)

	return Query{Document: document}
}
