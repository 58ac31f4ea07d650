// Package stream merges per-repository pull request and commit collections
// into a single globally time-descending activity sequence.
package stream

import (
	"container/heap"
	"sort"

	"github.com/cfech/github-dashboard/internal/models"
)

// Merge tags every pull request by its update timestamp and every commit by
// its authored timestamp, then k-way merges the per-repository sequences into
// one non-increasing activity stream. Ties on equal timestamps order pull
// requests before commits, then by repository name ascending. Every input
// appears exactly once in the output.
func Merge(pullRequests []models.PullRequest, commits []models.Commit) []models.ActivityItem {
	sequences := buildSequences(pullRequests, commits)

	h := &sequenceHeap{}
	total := 0
	for _, seq := range sequences {
		if len(seq.items) == 0 {
			continue
		}
		total += len(seq.items)
		*h = append(*h, seq)
	}
	heap.Init(h)

	merged := make([]models.ActivityItem, 0, total)
	for h.Len() > 0 {
		seq := (*h)[0]
		merged = append(merged, seq.items[seq.next])
		seq.next++
		if seq.next == len(seq.items) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return merged
}

// sequence is one repository's activity of one kind, sorted time-descending.
type sequence struct {
	items []models.ActivityItem
	next  int
}

// head is the item the sequence would emit next.
func (s *sequence) head() models.ActivityItem {
	return s.items[s.next]
}

// buildSequences groups the inputs into per-repository, per-kind sequences
// and sorts each one time-descending so the merge invariant holds even when a
// caller passes unsorted collections.
func buildSequences(pullRequests []models.PullRequest, commits []models.Commit) []*sequence {
	prByRepo := make(map[string][]models.ActivityItem)
	for i := range pullRequests {
		pr := pullRequests[i]
		prByRepo[pr.Repo] = append(prByRepo[pr.Repo], models.ActivityItem{
			Kind:        models.ActivityPullRequest,
			Repo:        pr.Repo,
			Timestamp:   pr.UpdatedAt,
			Title:       pr.Title,
			Author:      pr.Author,
			URL:         pr.URL,
			Ref:         pr.BaseBranch,
			PullRequest: &pr,
		})
	}

	commitByRepo := make(map[string][]models.ActivityItem)
	for i := range commits {
		commit := commits[i]
		commitByRepo[commit.Repo] = append(commitByRepo[commit.Repo], models.ActivityItem{
			Kind:      models.ActivityCommit,
			Repo:      commit.Repo,
			Timestamp: commit.AuthoredAt,
			Title:     commit.Message,
			Author:    commit.AuthorName,
			URL:       commit.URL,
			Ref:       commit.Branch,
			Commit:    &commit,
		})
	}

	sequences := make([]*sequence, 0, len(prByRepo)+len(commitByRepo))
	for _, byRepo := range []map[string][]models.ActivityItem{prByRepo, commitByRepo} {
		for _, items := range byRepo {
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Timestamp.After(items[j].Timestamp)
			})
			sequences = append(sequences, &sequence{items: items})
		}
	}
	return sequences
}

type sequenceHeap []*sequence

func (h sequenceHeap) Len() int { return len(h) }

func (h sequenceHeap) Less(i, j int) bool {
	a, b := h[i].head(), h[j].head()
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	if a.Kind != b.Kind {
		return a.Kind == models.ActivityPullRequest
	}
	return a.Repo < b.Repo
}

func (h sequenceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sequenceHeap) Push(x interface{}) { *h = append(*h, x.(*sequence)) }

func (h *sequenceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	seq := old[n-1]
	*h = old[:n-1]
	return seq
}
