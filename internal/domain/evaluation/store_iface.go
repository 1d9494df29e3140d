package evaluation

import (
	"context"
)

type StoreAPI interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, q ListQuery) ([]*Record, error)
	// Update replaces rec only if the stored stage still equals expected.
	// It returns ErrStageConflict when the stage has moved.
	Update(ctx context.Context, rec *Record, expected Stage) error
}

type ListQuery struct {
	NameContains string
	Stages       []Stage
}

// Hook receives lifecycle events after they are committed.
type Hook interface {
	Handle(ctx context.Context, evt Event) error
}

type HookFunc func(ctx context.Context, evt Event) error

func (f HookFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Queue runs work off the request path.
type Queue interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}
