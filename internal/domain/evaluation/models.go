package evaluation

import (
	"encoding/json"
	"fmt"
	"time"
)

type Record struct {
	ID              string              `json:"id"`
	Stage           Stage               `json:"stage"`
	Employee        *EmployeeSection    `json:"employeeSection"`
	Officer         *OfficerSection     `json:"officerSection"`
	Countersign     *CountersignSection `json:"countersignSection"`
	CreatedBy       string              `json:"createdBy"`
	DueAt           time.Time           `json:"dueAt"`
	SubmittedAt     *time.Time          `json:"submittedAt"`
	AssessedAt      *time.Time          `json:"assessedAt"`
	CountersignedAt *time.Time          `json:"countersignedAt"`
	RejectedAt      *time.Time          `json:"rejectedAt"`
	ReopenedAt      *time.Time          `json:"reopenedAt"`
	RejectionCount  int                 `json:"rejectionCount"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// EmployeeName is the name used for list search and display.
func (r *Record) EmployeeName() string {
	if r.Employee == nil {
		return ""
	}
	return r.Employee.FullName
}

// SectionFor returns the committed section of the given kind, or nil.
func (r *Record) SectionFor(kind SectionKind) Section {
	switch kind {
	case SectionEmployee:
		if r.Employee != nil {
			return r.Employee
		}
	case SectionOfficer:
		if r.Officer != nil {
			return r.Officer
		}
	case SectionCountersign:
		if r.Countersign != nil {
			return r.Countersign
		}
	}
	return nil
}

// WithSection returns a copy of the record carrying s in its slot.
func (r Record) WithSection(s Section) Record {
	switch v := s.(type) {
	case *EmployeeSection:
		r.Employee = v
	case *OfficerSection:
		r.Officer = v
	case *CountersignSection:
		r.Countersign = v
	}
	return r
}

// Clone copies the record and its sections.
func (r *Record) Clone() *Record {
	out := *r
	if r.Employee != nil {
		s := *r.Employee
		out.Employee = &s
	}
	if r.Officer != nil {
		s := *r.Officer
		out.Officer = &s
	}
	if r.Countersign != nil {
		s := *r.Countersign
		out.Countersign = &s
	}
	out.SubmittedAt = cloneTime(r.SubmittedAt)
	out.AssessedAt = cloneTime(r.AssessedAt)
	out.CountersignedAt = cloneTime(r.CountersignedAt)
	out.RejectedAt = cloneTime(r.RejectedAt)
	out.ReopenedAt = cloneTime(r.ReopenedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type Section interface {
	SectionKind() SectionKind
}

type EmployeeSection struct {
	FullName                   string `json:"fullName"`
	EmployeeID                 string `json:"employeeId"`
	Department                 string `json:"department"`
	Designation                string `json:"designation"`
	Grade                      string `json:"grade"`
	ReportingOfficer           string `json:"reportingOfficer"`
	DateOfBirth                string `json:"dateOfBirth"`
	DateOfJoining              string `json:"dateOfJoining"`
	CurrentPostingPlace        string `json:"currentPostingPlace"`
	PeriodFrom                 string `json:"periodFrom"`
	PeriodTo                   string `json:"periodTo"`
	MainDuties                 string `json:"mainDuties"`
	AdditionalResponsibilities string `json:"additionalResponsibilities"`
	AchievementsHighlights     string `json:"achievementsHighlights"`
	TrainingAttended           string `json:"trainingAttended"`
	SkillsDeveloped            string `json:"skillsDeveloped"`
	AreasForImprovement        string `json:"areasForImprovement"`
}

func (*EmployeeSection) SectionKind() SectionKind { return SectionEmployee }

type OfficerSection struct {
	PerformanceRating       string `json:"performanceRating"`
	StrengthsComments       string `json:"strengthsComments"`
	AreasForImprovement     string `json:"areasForImprovement"`
	AchievementHighlights   string `json:"achievementHighlights"`
	GoalProgress            string `json:"goalProgress"`
	LeadershipSkills        string `json:"leadershipSkills"`
	TechnicalCompetency     string `json:"technicalCompetency"`
	Teamwork                string `json:"teamwork"`
	CommunicationSkills     string `json:"communicationSkills"`
	ProblemSolving          string `json:"problemSolving"`
	OverallRating           string `json:"overallRating"`
	ReliabilityRating       string `json:"reliabilityRating"`
	InitiativeRating        string `json:"initiativeRating"`
	QualityOfWorkRating     string `json:"qualityOfWorkRating"`
	PromotionRecommendation string `json:"promotionRecommendation"`
	TrainingRecommendations string `json:"trainingRecommendations"`
	NextYearGoals           string `json:"nextYearGoals"`
	OfficerComments         string `json:"officerComments"`
}

func (*OfficerSection) SectionKind() SectionKind { return SectionOfficer }

type CountersignSection struct {
	FinalApprovalStatus       string `json:"finalApprovalStatus"`
	CountersignComments       string `json:"countersignComments"`
	RatingAgreement           string `json:"ratingAgreement"`
	PromotionEndorsement      string `json:"promotionEndorsement"`
	AdditionalRecommendations string `json:"additionalRecommendations"`
	HRNotifications           string `json:"hrNotifications"`
	FinalSignatureDate        string `json:"finalSignatureDate"`
	ReviewerConcerns          string `json:"reviewerConcerns"`
	ExecutiveSummary          string `json:"executiveSummary"`
	AuthorizationAcknowledged bool   `json:"authorizationAcknowledged"`
}

func (*CountersignSection) SectionKind() SectionKind { return SectionCountersign }

// NewSection returns an empty section of the given kind.
func NewSection(kind SectionKind) (Section, error) {
	switch kind {
	case SectionEmployee:
		return &EmployeeSection{}, nil
	case SectionOfficer:
		return &OfficerSection{}, nil
	case SectionCountersign:
		return &CountersignSection{}, nil
	default:
		return nil, fmt.Errorf("unknown section kind %q", kind)
	}
}

// DecodeSection parses a JSON payload into a section of the given kind.
func DecodeSection(kind SectionKind, payload []byte) (Section, error) {
	section, err := NewSection(kind)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return section, nil
	}
	if err := json.Unmarshal(payload, section); err != nil {
		return nil, err
	}
	return section, nil
}

// sectionFields flattens a section into its JSON field map.
func sectionFields(s Section) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type Filter struct {
	Query         string
	Statuses      []DisplayStatus
	ActionableFor Role
	Limit         int
	Offset        int
}

type ListItem struct {
	ID           string        `json:"id"`
	EmployeeName string        `json:"employeeName"`
	Stage        Stage         `json:"stage"`
	Status       DisplayStatus `json:"status"`
	DueAt        time.Time     `json:"dueAt"`
	SubmittedAt  *time.Time    `json:"submittedAt"`
}

type ListResult struct {
	Items []ListItem `json:"items"`
	Total int        `json:"total"`
}

type Summary struct {
	Total    int                   `json:"total"`
	ByStatus map[DisplayStatus]int `json:"byStatus"`
}

type Event struct {
	Type      EventType `json:"type"`
	RecordID  string    `json:"recordId"`
	From      Stage     `json:"from"`
	To        Stage     `json:"to"`
	Actor     Actor     `json:"actor"`
	At        time.Time `json:"at"`
	RequestID string    `json:"requestId,omitempty"`
	Record    *Record   `json:"-"`
}
