package evaluation

import (
	"errors"
	"strings"

	"aper/internal/domain/drafts"
)

var (
	ErrNotFound           = errors.New("evaluation not found")
	ErrStorageUnavailable = errors.New("evaluation storage unavailable")
	ErrStageConflict      = errors.New("evaluation stage changed concurrently")
	ErrUnknownAction      = errors.New("unknown evaluation action")

	ErrWrongStage       = errors.New("wrong_stage")
	ErrWrongRole        = errors.New("wrong_role")
	ErrIncompleteFields = errors.New("incomplete_fields")
)

const (
	ReasonWrongStage       = "wrong_stage"
	ReasonWrongRole        = "wrong_role"
	ReasonIncompleteFields = "incomplete_fields"
)

// Denial is returned by the gate when an action is not allowed.
// It matches ErrWrongStage, ErrWrongRole or ErrIncompleteFields under errors.Is.
type Denial struct {
	Reason string
	Fields []string
}

func (d *Denial) Error() string {
	if len(d.Fields) == 0 {
		return d.Reason
	}
	return d.Reason + ": " + strings.Join(d.Fields, ", ")
}

func (d *Denial) Is(target error) bool {
	switch target {
	case ErrWrongStage:
		return d.Reason == ReasonWrongStage
	case ErrWrongRole:
		return d.Reason == ReasonWrongRole
	case ErrIncompleteFields:
		return d.Reason == ReasonIncompleteFields
	}
	return false
}

func wrongStage() error { return &Denial{Reason: ReasonWrongStage} }

func wrongRole() error { return &Denial{Reason: ReasonWrongRole} }

func incomplete(fields []string) error {
	return &Denial{Reason: ReasonIncompleteFields, Fields: fields}
}

var (
	ErrInvalidPayload = errors.New("invalid section payload")
	ErrDraftNotFound  = drafts.ErrNotFound
)
