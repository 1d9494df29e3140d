package evaluation

import (
	"testing"
	"time"
)

func completeEmployee() *EmployeeSection {
	return &EmployeeSection{
		FullName:    "Asha Rao",
		EmployeeID:  "E-100",
		Department:  "Engineering",
		Designation: "Engineer",
		Grade:       "B",
		PeriodFrom:  "2025-04-01",
		PeriodTo:    "2026-03-31",
		MainDuties:  "Platform maintenance",
	}
}

func completeOfficer() *OfficerSection {
	return &OfficerSection{
		PerformanceRating:       "4",
		OverallRating:           "4",
		PromotionRecommendation: "recommend",
		OfficerComments:         "Consistent delivery",
	}
}

func completeCountersign() *CountersignSection {
	return &CountersignSection{
		FinalApprovalStatus:       "approved",
		CountersignComments:       "Agree with the assessment",
		RatingAgreement:           "fully-agree",
		ExecutiveSummary:          "Strong year",
		AuthorizationAcknowledged: true,
	}
}

func recordAt(stage Stage) *Record {
	rec := &Record{
		ID:        "rec-1",
		Stage:     stage,
		DueAt:     time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if stage.Position() > 0 || stage.Closed() {
		rec.Employee = completeEmployee()
	}
	if stage.Position() > 1 || stage.Closed() {
		rec.Officer = completeOfficer()
	}
	if stage == StageCountersigned {
		rec.Countersign = completeCountersign()
	}
	return rec
}

func testGate(t *testing.T) *Gate {
	t.Helper()
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	return NewGate(rules)
}

func denialReason(err error) string {
	if d, ok := err.(*Denial); ok {
		return d.Reason
	}
	return ""
}
