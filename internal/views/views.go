package views

import (
	"sort"
	"strings"
	"time"

	"lensflow/internal/photo"
)

// CategoryAll matches every photo regardless of stored category.
const CategoryAll = "all"

// Filter returns the photos matching both the category filter and the search
// query. Category matching is exact against the stored lower-cased value;
// the query is lower-cased and matched as a substring against the
// description, the category, or any tag. An empty query matches everything.
// The input slice is never mutated.
func Filter(photos []photo.Photo, category, query string) []photo.Photo {
	query = strings.ToLower(strings.TrimSpace(query))
	matchAll := category == "" || category == CategoryAll

	out := make([]photo.Photo, 0, len(photos))
	for _, p := range photos {
		if !matchAll && p.Category != category {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p photo.Photo, query string) bool {
	if strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Category), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Group is a run of photos sharing a calendar month, newest first inside the
// group.
type Group struct {
	Label  string
	Year   int
	Month  time.Month
	Photos []photo.Photo
}

// GroupByMonth sorts photos by timestamp descending and partitions them into
// month+year groups ordered most recent month first. The sort is stable so
// photos with equal timestamps keep their collection order.
func GroupByMonth(photos []photo.Photo) []Group {
	sorted := make([]photo.Photo, len(photos))
	copy(sorted, photos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	var groups []Group
	for _, p := range sorted {
		year, month := p.Timestamp.Year(), p.Timestamp.Month()
		if n := len(groups); n > 0 && groups[n-1].Year == year && groups[n-1].Month == month {
			groups[n-1].Photos = append(groups[n-1].Photos, p)
			continue
		}
		groups = append(groups, Group{
			Label:  p.Timestamp.Format("January 2006"),
			Year:   year,
			Month:  month,
			Photos: []photo.Photo{p},
		})
	}
	return groups
}
