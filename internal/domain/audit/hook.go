package audit

import (
	"context"

	"aper/internal/domain/evaluation"
)

type transition struct {
	Stage evaluation.Stage `json:"stage"`
}

// Hook records every evaluation lifecycle event in the trail.
func (s *Service) Hook() evaluation.Hook {
	return evaluation.HookFunc(func(ctx context.Context, evt evaluation.Event) error {
		return s.Record(ctx, Event{
			ActorEmail: evt.Actor.Email,
			ActorRole:  string(evt.Actor.Role),
			Action:     string(evt.Type),
			EntityType: EntityEvaluation,
			EntityID:   evt.RecordID,
			RequestID:  evt.RequestID,
			CreatedAt:  evt.At,
		}, transition{Stage: evt.From}, transition{Stage: evt.To})
	})
}
