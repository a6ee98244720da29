package types

import (
	"time"

	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Bias is a user's affiliation with a group. InfluencePoints always equals the
// sum of points awarded by the active endorsements referencing it.
type Bias struct {
	bun.BaseModel `bun:"table:biases"`

	ID              uuid.UUID `bun:",pk,type:uuid"                      json:"id"`
	UserID          uuid.UUID `bun:",type:uuid,notnull"                 json:"user_id"`
	GroupID         uuid.UUID `bun:",type:uuid,notnull"                 json:"group_id"`
	InfluencePoints int32     `bun:",notnull,default:0"                 json:"influence_points"`
	CreatedAt       time.Time `bun:",notnull,default:current_timestamp" json:"created_at"`
}

// Endorsement is one event in the append-only endorsement ledger. A row is active
// while SupersededAt is nil; it is closed exactly once when the author changes
// or retracts the endorsement.
type Endorsement struct {
	bun.BaseModel `bun:"table:endorsements"`

	ID              uuid.UUID            `bun:",pk,type:uuid"                      json:"id"`
	AuthorID        uuid.UUID            `bun:",type:uuid,notnull"                 json:"author_id"`
	BiasID          uuid.UUID            `bun:",type:uuid,notnull"                 json:"bias_id"`
	EndorsementType enum.EndorsementType `bun:",type:smallint,notnull"             json:"endorsement_type"`
	PointsAwarded   int32                `bun:",notnull"                           json:"points_awarded"`
	CreatedAt       time.Time            `bun:",notnull,default:current_timestamp" json:"created_at"`
	SupersededAt    *time.Time           `bun:",nullzero"                          json:"superseded_at,omitempty"`
}

// IsActive reports whether the endorsement still counts towards its bias.
func (e *Endorsement) IsActive() bool {
	return e.SupersededAt == nil
}

// EndorsementRequest is the input to the endorsement engine.
type EndorsementRequest struct {
	BiasID   uuid.UUID
	AuthorID uuid.UUID
	Type     enum.EndorsementType
	// PointsToAward overrides the configured points for Type when set.
	PointsToAward *int32
}
