package github

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestNormalizeRepositoryNodes(t *testing.T) {
	t.Run("nodes with a missing name are skipped, others retained", func(t *testing.T) {
		nodes := []repositoryNode{
			{NameWithOwner: "alice/web", URL: "https://github.com/alice/web", PushedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			{NameWithOwner: ""},
			{NameWithOwner: "alice/api", URL: "https://github.com/alice/api", PushedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		}

		repos := normalizeRepositoryNodes(nodes, "alice", testLogger())

		require.Len(t, repos, 2)
		assert.Equal(t, "alice/web", repos[0].NameWithOwner)
		assert.Equal(t, "alice/api", repos[1].NameWithOwner)
	})

	t.Run("unparseable names are skipped", func(t *testing.T) {
		repos := normalizeRepositoryNodes([]repositoryNode{{NameWithOwner: "no-slash"}}, "alice", testLogger())
		assert.Empty(t, repos)
	})

	t.Run("fields map onto the record", func(t *testing.T) {
		pushed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		nodes := []repositoryNode{{
			Name:          "web",
			NameWithOwner: "alice/web",
			URL:           "https://github.com/alice/web",
			PushedAt:      pushed,
			IsPrivate:     true,
			DefaultBranchRef: &struct {
				Name string `json:"name"`
			}{Name: "develop"},
		}}

		repos := normalizeRepositoryNodes(nodes, "acme", testLogger())

		require.Len(t, repos, 1)
		repo := repos[0]
		assert.Equal(t, "alice", repo.Owner)
		assert.Equal(t, "web", repo.Name)
		assert.Equal(t, "develop", repo.DefaultBranch)
		assert.True(t, repo.IsPrivate)
		assert.Equal(t, pushed, repo.PushedAt)
		assert.Equal(t, "acme", repo.Scope)
	})

	t.Run("missing default branch falls back", func(t *testing.T) {
		repos := normalizeRepositoryNodes([]repositoryNode{{NameWithOwner: "alice/web"}}, "alice", testLogger())
		require.Len(t, repos, 1)
		assert.Equal(t, "main", repos[0].DefaultBranch)
	})
}

func TestNormalizeBulkRepository(t *testing.T) {
	detail := func(t *testing.T, raw string) *repositoryDetailNode {
		t.Helper()
		var node repositoryDetailNode
		require.NoError(t, json.Unmarshal([]byte(raw), &node))
		return &node
	}

	t.Run("pull requests and commits flatten with defaults", func(t *testing.T) {
		node := detail(t, `{
			"nameWithOwner": "alice/web",
			"url": "https://github.com/alice/web",
			"pullRequests": {"nodes": [
				{"number": 7, "title": "Add search", "url": "https://github.com/alice/web/pull/7",
				 "state": "OPEN", "createdAt": "2024-03-01T10:00:00Z", "updatedAt": "2024-03-02T10:00:00Z",
				 "baseRefName": "main", "author": {"login": "bob"}},
				{"number": 6, "title": "Fix build", "url": "https://github.com/alice/web/pull/6",
				 "state": "MERGED", "createdAt": "2024-02-01T10:00:00Z", "updatedAt": "2024-02-05T10:00:00Z",
				 "mergedAt": "2024-02-05T10:00:00Z", "baseRefName": "main", "author": null}
			]},
			"defaultBranchRef": {"name": "main", "target": {"history": {"nodes": [
				{"oid": "abc1234def", "messageHeadline": "Tighten retry loop",
				 "committedDate": "2024-03-03T09:00:00Z", "url": "https://github.com/alice/web/commit/abc1234def",
				 "author": {"name": "Bob", "email": "bob@example.com", "user": {"login": "bob"}}},
				{"oid": "def5678abc", "messageHeadline": "",
				 "committedDate": "2024-03-01T09:00:00Z", "url": "https://github.com/alice/web/commit/def5678abc",
				 "author": null}
			]}}}
		}`)

		prs, commits := normalizeBulkRepository(node, testLogger())

		require.Len(t, prs, 2)
		assert.Equal(t, "bob", prs[0].Author)
		assert.Equal(t, "unknown", prs[1].Author)
		assert.True(t, prs[0].MergedAt.IsZero())
		assert.False(t, prs[1].MergedAt.IsZero())
		assert.Equal(t, "alice/web", prs[0].Repo)

		require.Len(t, commits, 2)
		assert.Equal(t, "Bob", commits[0].AuthorName)
		assert.Equal(t, "bob", commits[0].AuthorLogin)
		assert.Equal(t, "unknown", commits[1].AuthorName)
		assert.Equal(t, "No message", commits[1].Message)
		assert.Equal(t, "main", commits[0].Branch)
	})

	t.Run("repository without default branch yields no commits", func(t *testing.T) {
		node := detail(t, `{"nameWithOwner": "alice/empty", "url": "u", "pullRequests": {"nodes": []}, "defaultBranchRef": null}`)

		prs, commits := normalizeBulkRepository(node, testLogger())
		assert.Empty(t, prs)
		assert.Empty(t, commits)
	})

	t.Run("missing mandatory name drops the whole block", func(t *testing.T) {
		node := detail(t, `{"nameWithOwner": "", "pullRequests": {"nodes": [{"number": 1}]}}`)

		prs, commits := normalizeBulkRepository(node, testLogger())
		assert.Nil(t, prs)
		assert.Nil(t, commits)
	})

	t.Run("nil block from an unresolvable alias is ignored", func(t *testing.T) {
		prs, commits := normalizeBulkRepository(nil, testLogger())
		assert.Nil(t, prs)
		assert.Nil(t, commits)
	})
}
