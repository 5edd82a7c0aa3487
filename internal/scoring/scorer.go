// Package scoring ranks articles against a user's preferences. Everything
// here is pure and in-memory.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/utils"
)

const (
	SourceWeight   = 3.0
	CategoryWeight = 2.0
	AuthorWeight   = 2.5

	RecencyMax   = 5.0
	RecencyDecay = 0.5
)

// ScoredArticle is an article with its relevance for one feed request.
type ScoredArticle struct {
	objects.Article
	RelevanceScore float64 `json:"relevance_score"`
}

// preferenceSet is the lookup form of a UserPreference.
type preferenceSet struct {
	sources    map[string]struct{}
	categories map[string]struct{}
	authors    map[string]struct{}
}

func newPreferenceSet(p *objects.UserPreference) preferenceSet {
	if p == nil {
		return preferenceSet{}
	}
	return preferenceSet{
		sources:    toSet(p.PreferredSources),
		categories: toSet(p.PreferredCategories),
		authors:    toSet(p.PreferredAuthors),
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Score sums the source, category, author and recency terms. A nil
// preference scores on recency alone.
func Score(a *objects.Article, pref *objects.UserPreference, now time.Time) float64 {
	return newPreferenceSet(pref).score(a, now)
}

func (ps preferenceSet) score(a *objects.Article, now time.Time) float64 {
	var total float64

	if _, ok := ps.sources[a.Source.Slug]; ok {
		total += SourceWeight
	}
	for _, s := range distinct(a.CategorySlugs()) {
		if _, ok := ps.categories[s]; ok {
			total += CategoryWeight
		}
	}
	for _, name := range distinct(a.AuthorNames()) {
		if _, ok := ps.authors[name]; ok {
			total += AuthorWeight
		}
	}
	return total + Recency(a.PublishedAt, now)
}

// Recency decays linearly from RecencyMax on the publish day to 0 after ten
// whole days.
func Recency(publishedAt, now time.Time) float64 {
	days := utils.DaysSince(now, publishedAt)
	return math.Max(0, RecencyMax-RecencyDecay*float64(days))
}

// Rank scores candidates and sorts them by score descending. Ties keep the
// input order, which callers supply newest first.
func Rank(candidates []objects.Article, pref *objects.UserPreference, now time.Time) []ScoredArticle {
	ps := newPreferenceSet(pref)
	scored := make([]ScoredArticle, len(candidates))
	for i := range candidates {
		scored[i] = ScoredArticle{Article: candidates[i], RelevanceScore: ps.score(&candidates[i], now)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// Paginate slices items for a 1-based page.
func Paginate[T any](items []T, page, perPage int) []T {
	if page < 1 || perPage < 1 {
		return []T{}
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
