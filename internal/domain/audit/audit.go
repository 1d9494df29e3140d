package audit

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const EntityEvaluation = "evaluation"

type Event struct {
	ID         string          `json:"id"`
	ActorEmail string          `json:"actorEmail"`
	ActorRole  string          `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
}

func (f Filter) match(evt Event) bool {
	if f.Action != "" && evt.Action != f.Action {
		return false
	}
	if f.EntityType != "" && evt.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && evt.EntityID != f.EntityID {
		return false
	}
	return true
}

// Service writes the audit trail to audit_events. Without a pool the
// trail is kept in memory for the life of the process.
type Service struct {
	DB *pgxpool.Pool

	mu     sync.Mutex
	events []Event
	seq    int
	now    func() time.Time
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db, now: time.Now}
}

func (s *Service) Record(ctx context.Context, evt Event, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.now().UTC()
	}
	if s.DB == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.seq++
		evt.ID = itoa(s.seq)
		evt.Before = beforeJSON
		evt.After = afterJSON
		s.events = append(s.events, evt)
		return nil
	}

	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_events (actor_email, actor_role, action, entity_type, entity_id, before_json, after_json, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, evt.ActorEmail, evt.ActorRole, evt.Action, evt.EntityType, evt.EntityID, beforeJSON, afterJSON, evt.RequestID, evt.CreatedAt)
	return err
}

// List returns matching events, newest first.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	if s.DB == nil {
		return s.listMemory(filter, includeDetails, limit, offset), nil
	}

	selectCols := "id::text, actor_email, actor_role, action, entity_type, entity_id, request_id, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildQuery("SELECT "+selectCols, filter)
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorEmail, &evt.ActorRole, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	if s.DB == nil {
		return len(s.listMemory(filter, false, 0, 0)), nil
	}
	query, args := buildQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) listMemory(filter Filter, includeDetails bool, limit, offset int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Event{}
	for _, evt := range s.events {
		if !filter.match(evt) {
			continue
		}
		if !includeDetails {
			evt.Before, evt.After = nil, nil
		}
		out = append(out, evt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(out) {
			return []Event{}
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += " AND action = $" + itoa(len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += " AND entity_type = $" + itoa(len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += " AND entity_id = $" + itoa(len(args))
	}
	return query, args
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
