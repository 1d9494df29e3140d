package evaluation

type Stage string

const (
	StageDraft               Stage = "draft"
	StageSubmittedByEmployee Stage = "submitted_by_employee"
	StageAssessedByOfficer   Stage = "assessed_by_officer"
	StageCountersigned       Stage = "countersigned"
	StageRejected            Stage = "rejected"
)

var ValidStages = map[Stage]bool{
	StageDraft:               true,
	StageSubmittedByEmployee: true,
	StageAssessedByOfficer:   true,
	StageCountersigned:       true,
	StageRejected:            true,
}

// Position is the pipeline rank of the role that acts in this stage.
// Closed stages report -1.
func (s Stage) Position() int {
	switch s {
	case StageDraft:
		return 0
	case StageSubmittedByEmployee:
		return 1
	case StageAssessedByOfficer:
		return 2
	default:
		return -1
	}
}

// Closed reports whether no section is writable in this stage.
func (s Stage) Closed() bool {
	return s == StageCountersigned || s == StageRejected
}

// Owner returns the role whose section is writable in this stage.
func (s Stage) Owner() (Role, bool) {
	switch s {
	case StageDraft:
		return RoleEmployee, true
	case StageSubmittedByEmployee:
		return RoleReportingOfficer, true
	case StageAssessedByOfficer:
		return RoleCountersigningOfficer, true
	default:
		return "", false
	}
}

// Next returns the stage reached by a successful advance.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageDraft:
		return StageSubmittedByEmployee, true
	case StageSubmittedByEmployee:
		return StageAssessedByOfficer, true
	case StageAssessedByOfficer:
		return StageCountersigned, true
	default:
		return "", false
	}
}

type Role string

const (
	RoleEmployee              Role = "employee"
	RoleReportingOfficer      Role = "reporting-officer"
	RoleCountersigningOfficer Role = "countersigning-officer"
)

var Roles = []Role{RoleEmployee, RoleReportingOfficer, RoleCountersigningOfficer}

func (r Role) Valid() bool {
	return r.Position() >= 0
}

func (r Role) Position() int {
	switch r {
	case RoleEmployee:
		return 0
	case RoleReportingOfficer:
		return 1
	case RoleCountersigningOfficer:
		return 2
	default:
		return -1
	}
}

// Stage returns the stage in which this role's section is writable.
func (r Role) Stage() Stage {
	switch r {
	case RoleEmployee:
		return StageDraft
	case RoleReportingOfficer:
		return StageSubmittedByEmployee
	case RoleCountersigningOfficer:
		return StageAssessedByOfficer
	default:
		return ""
	}
}

func (r Role) SectionKind() SectionKind {
	switch r {
	case RoleEmployee:
		return SectionEmployee
	case RoleReportingOfficer:
		return SectionOfficer
	case RoleCountersigningOfficer:
		return SectionCountersign
	default:
		return ""
	}
}

type SectionKind string

const (
	SectionEmployee    SectionKind = "employee"
	SectionOfficer     SectionKind = "officer"
	SectionCountersign SectionKind = "countersign"
)

var SectionKinds = []SectionKind{SectionEmployee, SectionOfficer, SectionCountersign}

func (k SectionKind) Position() int {
	switch k {
	case SectionEmployee:
		return 0
	case SectionOfficer:
		return 1
	case SectionCountersign:
		return 2
	default:
		return -1
	}
}

type Action string

const (
	ActionView           Action = "view"
	ActionEditOwnSection Action = "edit_own_section"
	ActionSaveDraft      Action = "save_draft"
	ActionAdvance        Action = "advance"
	ActionReject         Action = "reject"
	ActionReopen         Action = "reopen"
)

type DisplayStatus string

const (
	StatusDraft         DisplayStatus = "draft"
	StatusPendingReview DisplayStatus = "pending-review"
	StatusUnderReview   DisplayStatus = "under-review"
	StatusCompleted     DisplayStatus = "completed"
	StatusRejected      DisplayStatus = "rejected"
	StatusOverdue       DisplayStatus = "overdue"
)

var DisplayStatuses = []DisplayStatus{
	StatusDraft,
	StatusPendingReview,
	StatusUnderReview,
	StatusCompleted,
	StatusRejected,
	StatusOverdue,
}

type EventType string

const (
	EventAdvanced EventType = "evaluation.advanced"
	EventRejected EventType = "evaluation.rejected"
	EventReopened EventType = "evaluation.reopened"
)
