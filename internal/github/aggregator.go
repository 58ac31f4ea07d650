package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cfech/github-dashboard/internal/models"
)

// bulkChunkSize is how many repositories share one aliased bulk query.
const bulkChunkSize = 10

// Executor executes one GraphQL round trip. Satisfied by *Transport.
type Executor interface {
	Execute(ctx context.Context, query Query) (*RawResponse, error)
}

// Aggregator orchestrates the full fetch cycle: resolve targets, list
// repositories per target, truncate to the global limit, then collect pull
// requests and commits for the retained set.
type Aggregator struct {
	executor      Executor
	logger        *logrus.Logger
	maxConcurrent int
}

// NewAggregator creates an aggregator issuing queries through the given
// executor with at most maxConcurrent in-flight sub-fetches.
func NewAggregator(executor Executor, logger *logrus.Logger, maxConcurrent int) *Aggregator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Aggregator{
		executor:      executor,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// fetchTarget is one resolved repository-listing target.
type fetchTarget struct {
	login  string
	isUser bool
}

// Fetch produces the dashboard dataset for one scope. Recoverable per-target
// failures degrade the result to partial with recorded warnings as long as at
// least one target succeeds; an authentication failure aborts immediately.
func (a *Aggregator) Fetch(ctx context.Context, scope models.FetchScope) (*models.AggregateResult, error) {
	var warnings []string

	targets, warning, err := a.resolveTargets(ctx, scope)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}

	listingStart := time.Now()
	repos, listingWarnings, err := a.listRepositories(ctx, scope, targets)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, listingWarnings...)
	listingDuration := time.Since(listingStart)

	repos = truncateByRecency(dedupeRepositories(repos), scope.RepoLimit)

	detailStart := time.Now()
	prs, commits, detailWarnings, err := a.fetchRepositoryDetails(ctx, scope, repos)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, detailWarnings...)

	a.logger.WithFields(logrus.Fields{
		"repositories":  len(repos),
		"pull_requests": len(prs),
		"commits":       len(commits),
		"warnings":      len(warnings),
	}).Info("Aggregation cycle complete")

	return &models.AggregateResult{
		Repositories: repos,
		PullRequests: prs,
		Commits:      commits,
		Warnings:     warnings,
		FetchedAt:    time.Now().UTC(),
		Timings: models.FetchTimings{
			RepoListing: listingDuration,
			BulkDetail:  time.Since(detailStart),
		},
	}, nil
}

// resolveTargets expands the scope into the concrete list of fetch targets:
// the viewer plus either the configured organizations or, when the list is
// unset, every organization the credential belongs to.
func (a *Aggregator) resolveTargets(ctx context.Context, scope models.FetchScope) ([]fetchTarget, string, error) {
	targets := []fetchTarget{{isUser: true}}

	orgLogins := scope.Organizations
	var warning string
	if scope.AllOrganizations() {
		discovered, err := a.fetchViewerOrganizations(ctx)
		if err != nil {
			if IsAuthError(err) {
				return nil, "", err
			}
			// Membership discovery failing is recoverable: degrade to
			// user-only with a warning.
			warning = fmt.Sprintf("organization discovery failed: %v", err)
			a.logger.WithError(err).Warn("Failed to discover organization memberships")
			discovered = nil
		}
		orgLogins = discovered
	}

	for _, login := range orgLogins {
		targets = append(targets, fetchTarget{login: login})
	}
	return targets, warning, nil
}

// listRepositories runs one repository-listing fetch per target with bounded
// concurrency. Auth failures abort the group; other failures become warnings.
// Zero successful targets is fatal.
func (a *Aggregator) listRepositories(ctx context.Context, scope models.FetchScope, targets []fetchTarget) ([]models.Repository, []string, error) {
	perTarget := make([][]models.Repository, len(targets))
	var (
		mu        sync.Mutex
		warnings  []string
		succeeded int
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.maxConcurrent)

	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			var (
				repos []models.Repository
				err   error
			)
			if target.isUser {
				repos, err = a.fetchViewerRepositories(egCtx, scope.RepoLimit)
			} else {
				repos, err = a.fetchOrganizationRepositories(egCtx, target.login, scope.RepoLimit)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if IsAuthError(err) {
					return err
				}
				label := "user repositories"
				if !target.isUser {
					label = fmt.Sprintf("organization %s", target.login)
				}
				warnings = append(warnings, fmt.Sprintf("failed to list %s: %v", label, err))
				a.logger.WithError(err).Warnf("Repository listing failed for %s", label)
				return nil
			}
			perTarget[i] = repos
			succeeded++
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if succeeded == 0 {
		return nil, nil, fmt.Errorf("all %d fetch targets failed: %v", len(targets), warnings)
	}

	// Flatten in target order so deduplication is deterministic regardless of
	// completion order.
	var all []models.Repository
	for _, repos := range perTarget {
		all = append(all, repos...)
	}
	return all, warnings, nil
}

// fetchViewerRepositories pages through the viewer's affiliated repositories
// until limit records are collected or the connection is exhausted.
func (a *Aggregator) fetchViewerRepositories(ctx context.Context, limit int) ([]models.Repository, error) {
	if limit < 1 {
		limit = 1
	}

	var repos []models.Repository
	cursor := ""
	for len(repos) < limit {
		resp, err := a.executor.Execute(ctx, ViewerRepositoriesQuery(limit-len(repos), cursor))
		if err != nil {
			return nil, err
		}

		var data viewerRepositoriesData
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, &MalformedResponseError{Message: "unexpected viewer repositories shape", Err: err}
		}

		conn := data.Viewer.Repositories
		repos = append(repos, normalizeRepositoryNodes(conn.Nodes, data.Viewer.Login, a.logger)...)

		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}
	return repos, nil
}

// fetchViewerOrganizations pages through every organization the credential
// has membership in.
func (a *Aggregator) fetchViewerOrganizations(ctx context.Context) ([]string, error) {
	var logins []string
	cursor := ""
	for {
		resp, err := a.executor.Execute(ctx, ViewerOrganizationsQuery(cursor))
		if err != nil {
			return nil, err
		}

		var data viewerOrganizationsData
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, &MalformedResponseError{Message: "unexpected organizations shape", Err: err}
		}

		for _, node := range data.Viewer.Organizations.Nodes {
			if node.Login != "" {
				logins = append(logins, node.Login)
			}
		}

		if !data.Viewer.Organizations.PageInfo.HasNextPage {
			break
		}
		cursor = data.Viewer.Organizations.PageInfo.EndCursor
	}
	return logins, nil
}

// fetchOrganizationRepositories pages through one organization's repositories
// until limit records are collected or the connection is exhausted.
func (a *Aggregator) fetchOrganizationRepositories(ctx context.Context, login string, limit int) ([]models.Repository, error) {
	if limit < 1 {
		limit = 1
	}

	var repos []models.Repository
	cursor := ""
	for len(repos) < limit {
		resp, err := a.executor.Execute(ctx, OrganizationRepositoriesQuery(login, limit-len(repos), cursor))
		if err != nil {
			return nil, err
		}

		var data organizationRepositoriesData
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, &MalformedResponseError{Message: "unexpected organization repositories shape", Err: err}
		}
		if data.Organization == nil {
			return nil, fmt.Errorf("organization %q not found or not accessible", login)
		}

		conn := data.Organization.Repositories
		repos = append(repos, normalizeRepositoryNodes(conn.Nodes, login, a.logger)...)

		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}
	return repos, nil
}

// fetchRepositoryDetails collects pull requests and commits for the retained
// repositories in aliased bulk queries, several repositories per round trip.
func (a *Aggregator) fetchRepositoryDetails(ctx context.Context, scope models.FetchScope, repos []models.Repository) ([]models.PullRequest, []models.Commit, []string, error) {
	if len(repos) == 0 {
		return nil, nil, nil, nil
	}

	names := make([]string, len(repos))
	for i, repo := range repos {
		names[i] = repo.NameWithOwner
	}

	chunks := chunkNames(names, bulkChunkSize)
	perChunkPRs := make([][]models.PullRequest, len(chunks))
	perChunkCommits := make([][]models.Commit, len(chunks))
	var (
		mu       sync.Mutex
		warnings []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.maxConcurrent)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		eg.Go(func() error {
			prs, commits, chunkWarnings, err := a.fetchBulkChunk(egCtx, chunk, scope.PRLimit, scope.CommitLimit)

			mu.Lock()
			defer mu.Unlock()
			warnings = append(warnings, chunkWarnings...)
			if err != nil {
				if IsAuthError(err) {
					return err
				}
				warnings = append(warnings, fmt.Sprintf("failed to fetch details for %v: %v", chunk, err))
				a.logger.WithError(err).Warnf("Bulk detail fetch failed for %d repositories", len(chunk))
				return nil
			}
			perChunkPRs[i] = prs
			perChunkCommits[i] = commits
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var (
		prs     []models.PullRequest
		commits []models.Commit
	)
	for i := range chunks {
		prs = append(prs, perChunkPRs[i]...)
		commits = append(commits, perChunkCommits[i]...)
	}

	sort.SliceStable(prs, func(i, j int) bool { return prs[i].UpdatedAt.After(prs[j].UpdatedAt) })
	sort.SliceStable(commits, func(i, j int) bool { return commits[i].AuthoredAt.After(commits[j].AuthoredAt) })

	return prs, commits, warnings, nil
}

// fetchBulkChunk runs one aliased bulk query. A GraphQL-level error with a
// partial payload still yields the reachable repositories.
func (a *Aggregator) fetchBulkChunk(ctx context.Context, names []string, prLimit, commitLimit int) ([]models.PullRequest, []models.Commit, []string, error) {
	resp, err := a.executor.Execute(ctx, BulkRepositoryDataQuery(names, prLimit, commitLimit))

	var (
		raw      json.RawMessage
		warnings []string
	)
	switch {
	case err == nil:
		raw = resp.Data
	default:
		var gqlErr *GraphQLError
		if errors.As(err, &gqlErr) && len(gqlErr.Partial) > 0 && string(gqlErr.Partial) != "null" {
			a.logger.WithField("errors", gqlErr.Messages).Warn("Bulk query returned partial data")
			warnings = append(warnings, fmt.Sprintf("bulk query returned partial data: %v", gqlErr.Messages))
			raw = gqlErr.Partial
		} else {
			return nil, nil, nil, err
		}
	}

	var aliased map[string]*repositoryDetailNode
	if err := json.Unmarshal(raw, &aliased); err != nil {
		return nil, nil, nil, &MalformedResponseError{Message: "unexpected bulk data shape", Err: err}
	}

	var (
		prs     []models.PullRequest
		commits []models.Commit
	)
	for _, repo := range aliased {
		repoPRs, repoCommits := normalizeBulkRepository(repo, a.logger)
		prs = append(prs, repoPRs...)
		commits = append(commits, repoCommits...)
	}
	return prs, commits, warnings, nil
}

// dedupeRepositories keeps the first occurrence per (owner, name), which is
// the highest-precedence target since input is flattened in target order.
func dedupeRepositories(repos []models.Repository) []models.Repository {
	seen := make(map[string]struct{}, len(repos))
	deduped := repos[:0:0]
	for _, repo := range repos {
		key := repo.NameWithOwner
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, repo)
	}
	return deduped
}

// truncateByRecency sorts by last-push recency descending, tie-broken by
// (owner, name) ascending, and keeps the top limit entries.
func truncateByRecency(repos []models.Repository, limit int) []models.Repository {
	sort.Slice(repos, func(i, j int) bool {
		if !repos[i].PushedAt.Equal(repos[j].PushedAt) {
			return repos[i].PushedAt.After(repos[j].PushedAt)
		}
		if repos[i].Owner != repos[j].Owner {
			return repos[i].Owner < repos[j].Owner
		}
		return repos[i].Name < repos[j].Name
	})

	if limit < 1 {
		limit = 1
	}
	if len(repos) > limit {
		repos = repos[:limit]
	}
	return repos
}

func chunkNames(names []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(names); start += size {
		end := start + size
		if end > len(names) {
			end = len(names)
		}
		chunks = append(chunks, names[start:end])
	}
	return chunks
}
