package evaluation

import "time"

type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type Group struct {
	Key    string  `json:"key"`
	Fields []Field `json:"fields"`
}

type SectionView struct {
	Kind   SectionKind `json:"kind"`
	Groups []Group     `json:"groups"`
}

// View is the read-only projection of a record for one role.
type View struct {
	RecordID    string        `json:"recordId"`
	Stage       Stage         `json:"stage"`
	Status      DisplayStatus `json:"status"`
	DueAt       time.Time     `json:"dueAt"`
	SubmittedAt *time.Time    `json:"submittedAt"`
	Sections    []SectionView `json:"sections"`
	Editable    SectionKind   `json:"editable,omitempty"`
}

type groupLayout struct {
	key    string
	fields []string
}

var sectionLayouts = map[SectionKind][]groupLayout{
	SectionEmployee: {
		{key: "personalInfo", fields: []string{"fullName", "employeeId", "department", "designation", "grade", "reportingOfficer", "dateOfBirth", "dateOfJoining"}},
		{key: "currentAssignment", fields: []string{"currentPostingPlace", "periodFrom", "periodTo"}},
		{key: "jobDescription", fields: []string{"mainDuties", "additionalResponsibilities", "achievementsHighlights"}},
		{key: "trainingDevelopment", fields: []string{"trainingAttended", "skillsDeveloped", "areasForImprovement"}},
	},
	SectionOfficer: {
		{key: "assessment", fields: []string{"performanceRating", "strengthsComments", "areasForImprovement", "achievementHighlights", "goalProgress"}},
		{key: "competencies", fields: []string{"leadershipSkills", "technicalCompetency", "teamwork", "communicationSkills", "problemSolving"}},
		{key: "ratings", fields: []string{"overallRating", "reliabilityRating", "initiativeRating", "qualityOfWorkRating"}},
		{key: "recommendations", fields: []string{"promotionRecommendation", "trainingRecommendations", "nextYearGoals", "officerComments"}},
	},
	SectionCountersign: {
		{key: "finalApproval", fields: []string{"finalApprovalStatus", "countersignComments", "ratingAgreement", "reviewerConcerns"}},
		{key: "recommendations", fields: []string{"promotionEndorsement", "additionalRecommendations", "hrNotifications", "executiveSummary"}},
		{key: "authorization", fields: []string{"authorizationAcknowledged", "finalSignatureDate"}},
	},
}

// Compose builds the read-only view of rec for role. Sections beyond the
// role's pipeline position are never included.
func Compose(gate *Gate, rec *Record, role Role, now time.Time) (View, error) {
	if err := gate.Authorize(rec, role, ActionView); err != nil {
		return View{}, err
	}
	view := View{
		RecordID:    rec.ID,
		Stage:       rec.Stage,
		Status:      Project(rec, now),
		DueAt:       rec.DueAt,
		SubmittedAt: cloneTime(rec.SubmittedAt),
		Sections:    []SectionView{},
	}
	if kind, ok := Writable(rec.Stage); ok && kind == role.SectionKind() {
		view.Editable = kind
	}
	for _, kind := range SectionKinds {
		if kind.Position() > role.Position() {
			break
		}
		section := rec.SectionFor(kind)
		if section == nil {
			continue
		}
		sv, err := composeSection(section)
		if err != nil {
			return View{}, err
		}
		view.Sections = append(view.Sections, sv)
	}
	return view, nil
}

func composeSection(section Section) (SectionView, error) {
	values, err := sectionFields(section)
	if err != nil {
		return SectionView{}, err
	}
	kind := section.SectionKind()
	sv := SectionView{Kind: kind}
	for _, layout := range sectionLayouts[kind] {
		group := Group{Key: layout.key}
		for _, key := range layout.fields {
			if key == "reviewerConcerns" && !showConcerns(section) {
				continue
			}
			group.Fields = append(group.Fields, Field{Key: key, Value: values[key]})
		}
		sv.Groups = append(sv.Groups, group)
	}
	return sv, nil
}

func showConcerns(section Section) bool {
	cs, ok := section.(*CountersignSection)
	if !ok {
		return false
	}
	return cs.RatingAgreement == "disagree" || cs.RatingAgreement == "partially-agree"
}
