package engine

import "github.com/galadraft/galadraft/internal/models"

// allowedTransitions is the draft lifecycle:
// PENDING -> IN_PROGRESS <-> PAUSED -> COMPLETED, any non-terminal -> CANCELLED.
var allowedTransitions = map[models.DraftStatus][]models.DraftStatus{
	models.DraftStatusPending:    {models.DraftStatusInProgress, models.DraftStatusCancelled},
	models.DraftStatusInProgress: {models.DraftStatusPaused, models.DraftStatusCompleted, models.DraftStatusCancelled},
	models.DraftStatusPaused:     {models.DraftStatusInProgress, models.DraftStatusCancelled},
	models.DraftStatusCompleted:  {},
	models.DraftStatusCancelled:  {},
}

// ValidateTransition checks whether a draft may move from to next. It
// returns a typed INVALID_STATE error otherwise.
func ValidateTransition(from, next models.DraftStatus) error {
	for _, allowed := range allowedTransitions[from] {
		if next == allowed {
			return nil
		}
	}
	return errf(CodeInvalidState, "transition from %s to %s is not allowed", from, next)
}
