package evaluation

import "time"

// Project derives the display status of rec at now. Open records past
// their due date show as overdue; the stage itself is untouched.
func Project(rec *Record, now time.Time) DisplayStatus {
	if !rec.Stage.Closed() && !rec.DueAt.IsZero() && now.After(rec.DueAt) {
		return StatusOverdue
	}
	switch rec.Stage {
	case StageDraft:
		return StatusDraft
	case StageSubmittedByEmployee:
		return StatusPendingReview
	case StageAssessedByOfficer:
		return StatusUnderReview
	case StageCountersigned:
		return StatusCompleted
	case StageRejected:
		return StatusRejected
	default:
		return StatusDraft
	}
}
