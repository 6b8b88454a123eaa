// Package session implements the due-set selection and session-ordering
// logic for a single study session: which items are eligible for review now,
// and in what order they are shown.
package session

import (
	"time"

	"github.com/wrenhollow/recall-api/internal/domain"
)

// DueItems returns the subsequence of items eligible for review at the given
// instant. An item is due iff it has never been scheduled (nil NextReview)
// or its scheduled time has arrived.
//
// The filter is stable: relative order from the source collection is
// preserved and nothing is resorted, so due-set indices stay meaningful
// across repeated calls as long as no item is added, removed, or graded in
// between. A single linear scan is sufficient at personal-collection scale;
// a time-ordered index keyed by NextReview would slot in here without
// changing the contract if collections ever grow large.
func DueItems(items []*domain.StudyItem, now time.Time) []*domain.StudyItem {
	due := make([]*domain.StudyItem, 0, len(items))
	for _, item := range items {
		if item.NextReview == nil || !item.NextReview.After(now) {
			due = append(due, item)
		}
	}
	return due
}

// Stats is a derived progress view over a collection. It holds no state of
// its own; every field is recomputable from the items at any time.
type Stats struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	Mastered int `json:"mastered"` // box == BoxCount
	Learning int `json:"learning"` // reviewed at least once, box < BoxCount
}

// CollectStats computes the progress counters for a collection at the given
// instant.
func CollectStats(items []*domain.StudyItem, now time.Time) Stats {
	stats := Stats{
		Total: len(items),
		Due:   len(DueItems(items, now)),
	}
	for _, item := range items {
		switch {
		case item.Box == domain.BoxCount:
			stats.Mastered++
		case item.Reviewed():
			stats.Learning++
		}
	}
	return stats
}
