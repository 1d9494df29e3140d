package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aper/internal/domain/drafts"
	"aper/internal/requestctx"
)

const (
	DefaultDueWindow = 30 * 24 * time.Hour

	JobHookPrefix = "evaluation_hook:"
)

type Service struct {
	store     StoreAPI
	drafts    drafts.Cache
	gate      *Gate
	hooks     []Hook
	queue     Queue
	logger    *zap.Logger
	now       func() time.Time
	dueWindow time.Duration
}

type Option func(*Service)

func WithHooks(hooks ...Hook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hooks...) }
}

// WithQueue runs hooks on q instead of inline.
func WithQueue(q Queue) Option {
	return func(s *Service) { s.queue = q }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDueWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dueWindow = d
		}
	}
}

func NewService(store StoreAPI, cache drafts.Cache, gate *Gate, opts ...Option) *Service {
	s := &Service{
		store:     store,
		drafts:    cache,
		gate:      gate,
		logger:    zap.NewNop(),
		now:       time.Now,
		dueWindow: DefaultDueWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Gate() *Gate {
	return s.gate
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// Create opens a new record in the draft stage. Only employees start
// evaluations.
func (s *Service) Create(ctx context.Context, actor Actor, dueAt *time.Time) (*Record, error) {
	if actor.Role != RoleEmployee {
		return nil, wrongRole()
	}
	now := s.Now()
	rec := &Record{
		ID:        uuid.NewString(),
		Stage:     StageDraft,
		CreatedBy: actor.Email,
		DueAt:     now.Add(s.dueWindow),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if dueAt != nil && !dueAt.IsZero() {
		rec.DueAt = dueAt.UTC()
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// View returns the read-only view of a record for role.
func (s *Service) View(ctx context.Context, id string, role Role) (View, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return Compose(s.gate, rec, role, s.Now())
}

func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	q := ListQuery{NameContains: strings.TrimSpace(filter.Query)}
	if filter.ActionableFor != "" {
		if !filter.ActionableFor.Valid() {
			return ListResult{}, wrongRole()
		}
		q.Stages = []Stage{filter.ActionableFor.Stage()}
	}
	records, err := s.store.List(ctx, q)
	if err != nil {
		return ListResult{}, err
	}

	wanted := map[DisplayStatus]bool{}
	for _, status := range filter.Statuses {
		wanted[status] = true
	}
	now := s.Now()
	items := make([]ListItem, 0, len(records))
	for _, rec := range records {
		status := Project(rec, now)
		if len(wanted) > 0 && !wanted[status] {
			continue
		}
		items = append(items, ListItem{
			ID:           rec.ID,
			EmployeeName: rec.EmployeeName(),
			Stage:        rec.Stage,
			Status:       status,
			DueAt:        rec.DueAt,
			SubmittedAt:  rec.SubmittedAt,
		})
	}

	total := len(items)
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			items = items[:0]
		} else {
			items = items[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return ListResult{Items: items, Total: total}, nil
}

// Summary counts records per display status.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	records, err := s.store.List(ctx, ListQuery{})
	if err != nil {
		return Summary{}, err
	}
	out := Summary{ByStatus: make(map[DisplayStatus]int, len(DisplayStatuses))}
	for _, status := range DisplayStatuses {
		out.ByStatus[status] = 0
	}
	now := s.Now()
	for _, rec := range records {
		out.ByStatus[Project(rec, now)]++
		out.Total++
	}
	return out, nil
}

func draftKey(id string, stage Stage) drafts.Key {
	return drafts.Key{RecordID: id, Stage: string(stage)}
}

// SaveDraft replaces the actor's draft for the record's current stage.
func (s *Service) SaveDraft(ctx context.Context, id string, actor Actor, payload json.RawMessage) (drafts.Entry, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return drafts.Entry{}, err
	}
	if err := s.gate.Authorize(rec, actor.Role, ActionSaveDraft); err != nil {
		return drafts.Entry{}, err
	}
	if _, err := DecodeSection(actor.Role.SectionKind(), payload); err != nil {
		return drafts.Entry{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	entry := drafts.Entry{
		Key:       draftKey(rec.ID, rec.Stage),
		Payload:   payload,
		UpdatedAt: s.Now(),
	}
	if err := s.drafts.Save(ctx, entry); err != nil {
		return drafts.Entry{}, storageErr(err)
	}
	// An advance that landed after the gate check has already cleared this
	// key, so the late write must not survive it.
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return drafts.Entry{}, err
	}
	if current.Stage != rec.Stage {
		s.clearDraft(ctx, id, rec.Stage)
		return drafts.Entry{}, wrongStage()
	}
	return entry, nil
}

func (s *Service) LoadDraft(ctx context.Context, id string, actor Actor) (drafts.Entry, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return drafts.Entry{}, err
	}
	if err := s.gate.Authorize(rec, actor.Role, ActionEditOwnSection); err != nil {
		return drafts.Entry{}, err
	}
	entry, err := s.drafts.Load(ctx, draftKey(rec.ID, rec.Stage))
	if err != nil {
		return drafts.Entry{}, storageErr(err)
	}
	return entry, nil
}

func (s *Service) DiscardDraft(ctx context.Context, id string, actor Actor) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(rec, actor.Role, ActionSaveDraft); err != nil {
		return err
	}
	return storageErr(s.drafts.Clear(ctx, draftKey(rec.ID, rec.Stage)))
}

// Submit advances the record with payload, or with the saved draft when
// payload is empty.
func (s *Service) Submit(ctx context.Context, id string, actor Actor, payload json.RawMessage) (*Record, error) {
	if !actor.Role.Valid() {
		return nil, wrongRole()
	}
	if len(payload) == 0 {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		entry, err := s.drafts.Load(ctx, draftKey(rec.ID, rec.Stage))
		switch {
		case err == nil:
			payload = entry.Payload
		case !errors.Is(err, drafts.ErrNotFound):
			return nil, storageErr(err)
		}
	}
	section, err := DecodeSection(actor.Role.SectionKind(), payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return s.CommitSection(ctx, id, actor, section)
}

// CommitSection writes the actor's section and advances the stage in one
// compare-and-set. A stale or duplicate submission gets a wrong_stage
// denial and leaves the record untouched.
func (s *Service) CommitSection(ctx context.Context, id string, actor Actor, section Section) (*Record, error) {
	if !actor.Role.Valid() || section == nil || section.SectionKind() != actor.Role.SectionKind() {
		return nil, wrongRole()
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate := rec.WithSection(section)
	if err := s.gate.Authorize(&candidate, actor.Role, ActionAdvance); err != nil {
		return nil, err
	}

	prior := rec.Stage
	next, _ := prior.Next()
	now := s.Now()
	candidate.Stage = next
	candidate.UpdatedAt = now
	switch next {
	case StageSubmittedByEmployee:
		candidate.SubmittedAt = &now
	case StageAssessedByOfficer:
		candidate.AssessedAt = &now
	case StageCountersigned:
		candidate.CountersignedAt = &now
	}

	if err := s.store.Update(ctx, &candidate, prior); err != nil {
		if errors.Is(err, ErrStageConflict) {
			return nil, wrongStage()
		}
		return nil, err
	}
	s.clearDraft(ctx, id, prior)
	committed := candidate.Clone()
	s.fire(ctx, Event{Type: EventAdvanced, RecordID: id, From: prior, To: next, Actor: actor, At: now, Record: committed.Clone()})
	return committed, nil
}

// Reject closes the record from the countersign stage. The optional
// section records the countersigner's reasons.
func (s *Service) Reject(ctx context.Context, id string, actor Actor, section *CountersignSection) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(rec, actor.Role, ActionReject); err != nil {
		return nil, err
	}

	prior := rec.Stage
	now := s.Now()
	candidate := rec.Clone()
	if section != nil {
		cs := *section
		candidate.Countersign = &cs
	}
	candidate.Stage = StageRejected
	candidate.RejectedAt = &now
	candidate.RejectionCount++
	candidate.UpdatedAt = now

	if err := s.store.Update(ctx, candidate, prior); err != nil {
		if errors.Is(err, ErrStageConflict) {
			return nil, wrongStage()
		}
		return nil, err
	}
	s.clearDraft(ctx, id, prior)
	s.fire(ctx, Event{Type: EventRejected, RecordID: id, From: prior, To: StageRejected, Actor: actor, At: now, Record: candidate.Clone()})
	return candidate, nil
}

// Reopen resets a rejected record to the draft stage. The employee section
// is kept; officer and countersign sections are cleared.
func (s *Service) Reopen(ctx context.Context, id string, actor Actor) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(rec, actor.Role, ActionReopen); err != nil {
		return nil, err
	}

	now := s.Now()
	candidate := rec.Clone()
	candidate.Stage = StageDraft
	candidate.Officer = nil
	candidate.Countersign = nil
	candidate.SubmittedAt = nil
	candidate.AssessedAt = nil
	candidate.CountersignedAt = nil
	candidate.ReopenedAt = &now
	candidate.UpdatedAt = now

	if err := s.store.Update(ctx, candidate, StageRejected); err != nil {
		if errors.Is(err, ErrStageConflict) {
			return nil, wrongStage()
		}
		return nil, err
	}
	for _, stage := range []Stage{StageSubmittedByEmployee, StageAssessedByOfficer} {
		s.clearDraft(ctx, id, stage)
	}
	s.fire(ctx, Event{Type: EventReopened, RecordID: id, From: StageRejected, To: StageDraft, Actor: actor, At: now, Record: candidate.Clone()})
	return candidate, nil
}

// SweepDrafts removes drafts whose stage no longer matches their record.
func (s *Service) SweepDrafts(ctx context.Context) (int, error) {
	keys, err := s.drafts.Keys(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	removed := 0
	for _, key := range keys {
		rec, err := s.store.Get(ctx, key.RecordID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return removed, err
		case string(rec.Stage) == key.Stage:
			continue
		}
		if err := s.drafts.Clear(ctx, key); err != nil {
			return removed, storageErr(err)
		}
		removed++
	}
	return removed, nil
}

func (s *Service) clearDraft(ctx context.Context, id string, stage Stage) {
	if err := s.drafts.Clear(ctx, draftKey(id, stage)); err != nil {
		s.logger.Warn("draft clear failed",
			zap.String("recordId", id),
			zap.String("stage", string(stage)),
			zap.Error(err))
	}
}

func (s *Service) fire(ctx context.Context, evt Event) {
	evt.RequestID = requestctx.GetRequestID(ctx)
	for _, hook := range s.hooks {
		h := hook
		run := func(ctx context.Context) (any, error) {
			return map[string]any{"recordId": evt.RecordID, "event": evt.Type}, h.Handle(ctx, evt)
		}
		if s.queue != nil {
			s.queue.Enqueue(JobHookPrefix+string(evt.Type), run)
			continue
		}
		if _, err := run(ctx); err != nil {
			s.logger.Warn("evaluation hook failed",
				zap.String("recordId", evt.RecordID),
				zap.String("event", string(evt.Type)),
				zap.Error(err))
		}
	}
}

func storageErr(err error) error {
	if errors.Is(err, drafts.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return err
}
