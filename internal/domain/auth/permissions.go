package auth

import "aper/internal/domain/evaluation"

const (
	PermEvaluationRead   = "evaluation.read"
	PermEvaluationCreate = "evaluation.create"
	PermEvaluationWrite  = "evaluation.write"
	PermEvaluationReject = "evaluation.reject"
	PermEvaluationReopen = "evaluation.reopen"
	PermEvaluationExport = "evaluation.export"
	PermAuditRead        = "audit.read"
)

var DefaultPermissions = []string{
	PermEvaluationRead,
	PermEvaluationCreate,
	PermEvaluationWrite,
	PermEvaluationReject,
	PermEvaluationReopen,
	PermEvaluationExport,
	PermAuditRead,
}

// RolePermissions grants coarse route access. Which section a role may
// touch in which stage is decided by the evaluation gate.
var RolePermissions = map[evaluation.Role][]string{
	evaluation.RoleEmployee: {
		PermEvaluationRead,
		PermEvaluationCreate,
		PermEvaluationWrite,
		PermEvaluationReopen,
		PermEvaluationExport,
	},
	evaluation.RoleReportingOfficer: {
		PermEvaluationRead,
		PermEvaluationWrite,
		PermEvaluationExport,
		PermAuditRead,
	},
	evaluation.RoleCountersigningOfficer: {
		PermEvaluationRead,
		PermEvaluationWrite,
		PermEvaluationReject,
		PermEvaluationReopen,
		PermEvaluationExport,
		PermAuditRead,
	},
}
