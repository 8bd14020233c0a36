package models

import (
	"time"

	"github.com/google/uuid"
)

// Nomination is one draftable nominee, tagged with its ceremony category.
// Nomination data is loaded by collaborators; the engine reads it only.
type Nomination struct {
	ID                uuid.UUID `json:"id"`
	CategoryID        uuid.UUID `json:"category_id"`
	Title             string    `json:"title"`
	CanonicalIndex    int       `json:"canonical_index"`
	CategorySortIndex int       `json:"category_sort_index"`
}

// SeasonContext is the slice of season/ceremony state the engine consumes
// from the administrative layer.
type SeasonContext struct {
	SeasonID         uuid.UUID  `json:"season_id"`
	LeagueID         uuid.UUID  `json:"league_id"`
	Cancelled        bool       `json:"cancelled"`
	CeremonyLockedAt *time.Time `json:"ceremony_locked_at,omitempty"`
}

// Locked reports whether the season's ceremony has locked as of now.
func (s SeasonContext) Locked(now time.Time) bool {
	return s.CeremonyLockedAt != nil && !now.Before(*s.CeremonyLockedAt)
}
