package concierge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/repository"
)

const (
	minResourceScore    = 1.0
	minTitleMatchScore  = 2.0
	strongTopScore      = 5.0
	relativeScoreCutoff = 0.3
)

type scored struct {
	score    float64
	resource domain.Resource
}

// matchResources ranks catalogue records against the question keywords.
func (s *ConciergeService) matchResources(ctx context.Context, question string, keywords []string, category string, publishedOnly bool) ([]domain.Resource, error) {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" && !stopWords[k] {
			terms = append(terms, k)
		}
	}
	if len(terms) == 0 {
		terms = tokenize(question)
	}

	var status domain.ResourceStatus
	if publishedOnly {
		status = domain.ResourceStatusPublished
	}

	detected := category
	if detected == "" {
		detected = detectCategory(question)
	}

	var ranked []scored
	seen := make(map[int64]bool)

	if len(terms) > 0 {
		rows, _, err := s.resources.Search(ctx, repository.ResourceFilter{
			AnyTerms: terms,
			Category: detected,
			Status:   status,
			Limit:    s.maxResources * 4,
		})
		if err != nil {
			return nil, fmt.Errorf("search resources: %w", err)
		}
		for _, r := range rows {
			if seen[r.ID] {
				continue
			}
			if score := scoreResource(&r, terms); score >= minResourceScore {
				seen[r.ID] = true
				ranked = append(ranked, scored{score: score, resource: r})
			}
		}

		// A title hit outside the detected category still counts,
		// e.g. "podcast room" filed under Event Space.
		if detected != "" && len(ranked) < 2 {
			rows, _, err := s.resources.Search(ctx, repository.ResourceFilter{
				AnyTerms: terms,
				Status:   status,
				Limit:    s.maxResources * 6,
			})
			if err != nil {
				return nil, fmt.Errorf("search resources: %w", err)
			}
			for _, r := range rows {
				if seen[r.ID] {
					continue
				}
				score := scoreResource(&r, terms)
				if strongTitleMatch(r.Title, terms) && score >= minTitleMatchScore {
					seen[r.ID] = true
					ranked = append(ranked, scored{score: score, resource: r})
				}
			}
		}
	}

	if len(ranked) > 0 {
		return s.selectTop(ranked), nil
	}

	fallback, _, err := s.resources.Search(ctx, repository.ResourceFilter{
		Category: category,
		Status:   status,
		Limit:    s.maxResources,
	})
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	return fallback, nil
}

// selectTop sorts by score and, when the best match is strong, drops the
// weak tail.
func (s *ConciergeService) selectTop(ranked []scored) []domain.Resource {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0].score
	if top >= strongTopScore {
		threshold := top * relativeScoreCutoff
		if threshold < minTitleMatchScore {
			threshold = minTitleMatchScore
		}
		kept := ranked[:0]
		for _, r := range ranked {
			if r.score >= threshold {
				kept = append(kept, r)
			}
		}
		ranked = kept
	}

	if len(ranked) > s.maxResources {
		ranked = ranked[:s.maxResources]
	}
	out := make([]domain.Resource, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.resource)
	}
	return out
}

func strongTitleMatch(title string, terms []string) bool {
	title = strings.ToLower(title)
	for _, t := range terms {
		if len(t) >= 4 && strings.Contains(title, t) {
			return true
		}
	}
	return false
}

// scoreResource weights category hits highest, then title, description,
// equipment and location.
func scoreResource(r *domain.Resource, terms []string) float64 {
	category := strings.ToLower(r.Category)
	title := strings.ToLower(r.Title)
	description := strings.ToLower(r.Description)
	equipment := strings.ToLower(r.Equipment)
	location := strings.ToLower(r.Location)

	var score float64
	for _, t := range terms {
		if strings.Contains(category, t) {
			score += 5
			if len(t) >= 4 {
				score += 3
			}
		}
		if strings.Contains(title, t) {
			score += 3
			if title == t || strings.HasPrefix(title, t+" ") || strings.HasSuffix(title, " "+t) {
				score += 2
			}
		}
		if strings.Contains(description, t) {
			score++
		}
		if strings.Contains(equipment, t) {
			score += 0.5
		}
		if strings.Contains(location, t) {
			score += 0.5
		}
	}
	return score
}
