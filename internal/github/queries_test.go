package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerRepositoriesQuery(t *testing.T) {
	t.Run("requests the fields the normalizer depends on", func(t *testing.T) {
		q := ViewerRepositoriesQuery(25, "")

		for _, field := range []string{"nameWithOwner", "pushedAt", "isPrivate", "defaultBranchRef", "hasNextPage", "endCursor"} {
			assert.Contains(t, q.Document, field)
		}
		assert.Contains(t, q.Document, "first: 25")
		assert.Contains(t, q.Document, "PUSHED_AT")
	})

	t.Run("empty cursor becomes a null variable", func(t *testing.T) {
		q := ViewerRepositoriesQuery(10, "")
		assert.Nil(t, q.Variables["endCursor"])
	})

	t.Run("cursor is passed through", func(t *testing.T) {
		q := ViewerRepositoriesQuery(10, "abc123")
		assert.Equal(t, "abc123", q.Variables["endCursor"])
	})

	t.Run("invalid limit clamps to 1", func(t *testing.T) {
		q := ViewerRepositoriesQuery(-5, "")
		assert.Contains(t, q.Document, "first: 1,")
	})

	t.Run("oversized limit caps at page size", func(t *testing.T) {
		q := ViewerRepositoriesQuery(500, "")
		assert.Contains(t, q.Document, "first: 100")
	})
}

func TestOrganizationRepositoriesQuery(t *testing.T) {
	q := OrganizationRepositoriesQuery("acme", 30, "cursor-1")

	assert.Contains(t, q.Document, "organization(login: $orgLogin)")
	assert.Equal(t, "acme", q.Variables["orgLogin"])
	assert.Equal(t, "cursor-1", q.Variables["endCursor"])
}

func TestViewerOrganizationsQuery(t *testing.T) {
	q := ViewerOrganizationsQuery("")

	assert.Contains(t, q.Document, "organizations(first: 100")
	assert.Contains(t, q.Document, "login")
	assert.Nil(t, q.Variables["endCursor"])
}

func TestBulkRepositoryDataQuery(t *testing.T) {
	t.Run("one alias per repository over a shared fragment", func(t *testing.T) {
		q := BulkRepositoryDataQuery([]string{"alice/web", "acme/api"}, 20, 25)

		assert.Contains(t, q.Document, `repo0: repository(owner: "alice", name: "web")`)
		assert.Contains(t, q.Document, `repo1: repository(owner: "acme", name: "api")`)
		assert.Equal(t, 2, strings.Count(q.Document, "...repositoryDataFields"))
		require.Contains(t, q.Document, "fragment repositoryDataFields on Repository")
	})

	t.Run("requests the fields the normalizer depends on", func(t *testing.T) {
		q := BulkRepositoryDataQuery([]string{"alice/web"}, 20, 25)

		for _, field := range []string{"pullRequests", "updatedAt", "mergedAt", "baseRefName", "oid", "messageHeadline", "committedDate", "history(first: 25)"} {
			assert.Contains(t, q.Document, field)
		}
		assert.Contains(t, q.Document, "first: 20")
	})

	t.Run("skips names that are not owner/name", func(t *testing.T) {
		q := BulkRepositoryDataQuery([]string{"not-a-repo", "alice/web"}, 20, 25)

		assert.NotContains(t, q.Document, "repo0:")
		assert.Contains(t, q.Document, `repo1: repository(owner: "alice", name: "web")`)
	})

	t.Run("limits clamp to 1", func(t *testing.T) {
		q := BulkRepositoryDataQuery([]string{"alice/web"}, 0, -1)

		assert.Contains(t, q.Document, "first: 1,")
		assert.Contains(t, q.Document, "history(first: 1)")
	})
}
