package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("draft not found")
	ErrUnavailable = errors.New("draft cache unavailable")
)

// Key scopes a draft to one record and one stage. Drafts for different
// stages of the same record never see each other.
type Key struct {
	RecordID string `json:"recordId"`
	Stage    string `json:"stage"`
}

func (k Key) String() string {
	return k.RecordID + ":" + k.Stage
}

type Entry struct {
	Key       Key             `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Cache stores at most one entry per key. Save replaces the whole entry.
type Cache interface {
	Save(ctx context.Context, entry Entry) error
	Load(ctx context.Context, key Key) (Entry, error)
	Clear(ctx context.Context, key Key) error
	Keys(ctx context.Context) ([]Key, error)
}
