package history

import (
	"errors"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
)

// Record is one deposit value that has already been handed out.
type Record struct {
	ID         int64                 `json:"id" db:"id"`
	Value      int                   `json:"value" db:"value"`
	Kind       generator.DepositKind `json:"type" db:"kind"`
	Agent      int                   `json:"agent" db:"agent"`
	Source     string                `json:"source" db:"source"`
	RecordedAt int64                 `json:"recorded_at" db:"recorded_at"` // Unix seconds
}

// RecordedTime returns RecordedAt as a UTC time.
func (r Record) RecordedTime() time.Time {
	return time.Unix(r.RecordedAt, 0).UTC()
}

// AvoidValue is a value the operator never wants drawn again.
type AvoidValue struct {
	Value     int    `json:"value" db:"value"`
	Note      string `json:"note" db:"note"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

// SourceManual marks records entered by hand rather than committed from a plan.
const SourceManual = "manual"

// ErrInvalidRecord is returned for history records that cannot be stored.
var ErrInvalidRecord = errors.New("invalid history record")
