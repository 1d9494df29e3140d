package auth

import (
	"errors"
	"testing"
	"time"

	"aper/internal/domain/evaluation"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	token, user, err := svc.Issue(" Asha Rao ", "Asha@Example.com", evaluation.RoleReportingOfficer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if user.Name != "Asha Rao" || user.Email != "asha@example.com" {
		t.Fatalf("identity not normalized: %+v", user)
	}

	parsed, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != user {
		t.Fatalf("expected %+v, got %+v", user, parsed)
	}
	if parsed.Actor().Role != evaluation.RoleReportingOfficer {
		t.Fatalf("unexpected actor %+v", parsed.Actor())
	}
}

func TestIssueRejectsBadIdentity(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	cases := []struct {
		name, email string
		role        evaluation.Role
	}{
		{"", "a@example.com", evaluation.RoleEmployee},
		{"A", "not-an-email", evaluation.RoleEmployee},
		{"A", "a@example.com", evaluation.Role("hr")},
	}
	for _, tc := range cases {
		if _, _, err := svc.Issue(tc.name, tc.email, tc.role); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("%+v: expected ErrInvalidIdentity, got %v", tc, err)
		}
	}
}

func TestParseRejectsForeignSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("other-secret", Claims{Name: "A", Email: "a@example.com", Role: evaluation.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expected signature failure")
	}

	expired, err := GenerateToken("test-secret", Claims{Name: "A", Email: "a@example.com", Role: evaluation.RoleEmployee}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("test-secret", expired); err == nil {
		t.Fatal("expected expiry failure")
	}
}
