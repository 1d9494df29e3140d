package evaluation

// Gate decides which role may do what to a record in its current stage.
// It never mutates the record.
type Gate struct {
	rules *Rules
}

func NewGate(rules *Rules) *Gate {
	return &Gate{rules: rules}
}

// Authorize returns nil when role may perform action on rec, or a *Denial.
// For ActionAdvance the section checked is the one already placed on rec.
func (g *Gate) Authorize(rec *Record, role Role, action Action) error {
	if !role.Valid() {
		return wrongRole()
	}
	switch action {
	case ActionView:
		if rec.Stage.Closed() {
			return nil
		}
		if role.Position() < rec.Stage.Position() {
			return wrongStage()
		}
		return nil
	case ActionEditOwnSection, ActionSaveDraft:
		return ownsStage(rec.Stage, role)
	case ActionAdvance:
		if err := ownsStage(rec.Stage, role); err != nil {
			return err
		}
		kind := role.SectionKind()
		missing, err := g.rules.Missing(kind, rec.SectionFor(kind))
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return incomplete(missing)
		}
		return nil
	case ActionReject:
		if role != RoleCountersigningOfficer {
			return wrongRole()
		}
		if rec.Stage != StageAssessedByOfficer {
			return wrongStage()
		}
		return nil
	case ActionReopen:
		if role != RoleEmployee && role != RoleCountersigningOfficer {
			return wrongRole()
		}
		if rec.Stage != StageRejected {
			return wrongStage()
		}
		return nil
	default:
		return ErrUnknownAction
	}
}

// Writable returns the section kind editable in stage, if any.
func Writable(stage Stage) (SectionKind, bool) {
	owner, ok := stage.Owner()
	if !ok {
		return "", false
	}
	return owner.SectionKind(), true
}

func ownsStage(stage Stage, role Role) error {
	owner, ok := stage.Owner()
	if !ok || owner != role {
		return wrongStage()
	}
	return nil
}
