package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `id::text, stage, employee_section, officer_section, countersign_section, created_by,
           due_at, submitted_at, assessed_at, countersigned_at, rejected_at, reopened_at,
           rejection_count, created_at, updated_at`

func (s *Store) Create(ctx context.Context, rec *Record) error {
	employee, officer, countersign, err := encodeSections(rec)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO evaluations (id, stage, employee_section, officer_section, countersign_section, created_by,
                             due_at, submitted_at, assessed_at, countersigned_at, rejected_at, reopened_at,
                             rejection_count, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
  `, rec.ID, string(rec.Stage), employee, officer, countersign, rec.CreatedBy,
		rec.DueAt, rec.SubmittedAt, rec.AssessedAt, rec.CountersignedAt, rec.RejectedAt, rec.ReopenedAt,
		rec.RejectionCount, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM evaluations WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, q ListQuery) ([]*Record, error) {
	query := "SELECT " + recordColumns + " FROM evaluations WHERE 1=1"
	var args []any
	if needle := strings.TrimSpace(q.NameContains); needle != "" {
		args = append(args, "%"+escapeLike(needle)+"%")
		query += fmt.Sprintf(" AND COALESCE(employee_section->>'fullName', '') ILIKE $%d ESCAPE '\\'", len(args))
	}
	if len(q.Stages) > 0 {
		stages := make([]string, 0, len(q.Stages))
		for _, stage := range q.Stages {
			stages = append(stages, string(stage))
		}
		args = append(args, stages)
		query += fmt.Sprintf(" AND stage = ANY($%d)", len(args))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) Update(ctx context.Context, rec *Record, expected Stage) error {
	employee, officer, countersign, err := encodeSections(rec)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET stage = $2, employee_section = $3, officer_section = $4, countersign_section = $5,
        due_at = $6, submitted_at = $7, assessed_at = $8, countersigned_at = $9,
        rejected_at = $10, reopened_at = $11, rejection_count = $12, updated_at = $13
    WHERE id = $1 AND stage = $14
  `, rec.ID, string(rec.Stage), employee, officer, countersign,
		rec.DueAt, rec.SubmittedAt, rec.AssessedAt, rec.CountersignedAt,
		rec.RejectedAt, rec.ReopenedAt, rec.RejectionCount, rec.UpdatedAt, string(expected))
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM evaluations WHERE id = $1)", rec.ID).Scan(&exists); err != nil {
		return unavailable(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStageConflict
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var stage string
	var employee, officer, countersign []byte
	if err := row.Scan(&rec.ID, &stage, &employee, &officer, &countersign, &rec.CreatedBy,
		&rec.DueAt, &rec.SubmittedAt, &rec.AssessedAt, &rec.CountersignedAt, &rec.RejectedAt, &rec.ReopenedAt,
		&rec.RejectionCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Stage = Stage(stage)
	if len(employee) > 0 {
		rec.Employee = &EmployeeSection{}
		if err := json.Unmarshal(employee, rec.Employee); err != nil {
			return nil, err
		}
	}
	if len(officer) > 0 {
		rec.Officer = &OfficerSection{}
		if err := json.Unmarshal(officer, rec.Officer); err != nil {
			return nil, err
		}
	}
	if len(countersign) > 0 {
		rec.Countersign = &CountersignSection{}
		if err := json.Unmarshal(countersign, rec.Countersign); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func encodeSections(rec *Record) (employee, officer, countersign []byte, err error) {
	if rec.Employee != nil {
		if employee, err = json.Marshal(rec.Employee); err != nil {
			return nil, nil, nil, err
		}
	}
	if rec.Officer != nil {
		if officer, err = json.Marshal(rec.Officer); err != nil {
			return nil, nil, nil, err
		}
	}
	if rec.Countersign != nil {
		if countersign, err = json.Marshal(rec.Countersign); err != nil {
			return nil, nil, nil, err
		}
	}
	return employee, officer, countersign, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
