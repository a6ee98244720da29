package types

import (
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TargetRef identifies the post or comment a vote points at. The zero value is
// not a valid target; build one with PostTarget, CommentTarget or NewTargetRef.
type TargetRef struct {
	kind enum.TargetType
	id   uuid.UUID
}

// PostTarget references a post.
func PostTarget(id uuid.UUID) TargetRef {
	return TargetRef{kind: enum.TargetTypePost, id: id}
}

// CommentTarget references a comment.
func CommentTarget(id uuid.UUID) TargetRef {
	return TargetRef{kind: enum.TargetTypeComment, id: id}
}

// NewTargetRef builds a target from its persisted representation.
func NewTargetRef(kind enum.TargetType, id uuid.UUID) (TargetRef, error) {
	if !kind.IsATargetType() || id == uuid.Nil {
		return TargetRef{}, fmt.Errorf("%w: %s/%s", ErrInvalidTarget, kind, id)
	}
	return TargetRef{kind: kind, id: id}, nil
}

// Type returns the kind of row referenced.
func (t TargetRef) Type() enum.TargetType { return t.kind }

// ID returns the referenced row id.
func (t TargetRef) ID() uuid.UUID { return t.id }

// IsZero reports whether t references nothing.
func (t TargetRef) IsZero() bool {
	return t.id == uuid.Nil || !t.kind.IsATargetType()
}

func (t TargetRef) String() string {
	return t.kind.String() + ":" + t.id.String()
}

// Vote is a user's current like or dislike on a post or comment. At most one
// vote exists per (user, target).
type Vote struct {
	bun.BaseModel `bun:"table:votes"`

	ID         uuid.UUID       `bun:",pk,type:uuid"              json:"id"`
	UserID     uuid.UUID       `bun:",type:uuid,notnull"         json:"user_id"`
	TargetType enum.TargetType `bun:",type:text,notnull"         json:"target_type"`
	TargetID   uuid.UUID       `bun:",type:uuid,notnull"         json:"target_id"`
	VoteType   enum.VoteType   `bun:",type:smallint,notnull"     json:"vote_type"`
	CreatedAt  time.Time       `bun:",notnull"                   json:"created_at"`
}

// Target returns the vote's target reference.
func (v *Vote) Target() TargetRef {
	return TargetRef{kind: v.TargetType, id: v.TargetID}
}

// Counters are the denormalized aggregates stored on a post or comment row.
// CommentsCount is always zero for comments.
type Counters struct {
	LikesCount    int32 `bun:"likes_count"    json:"likes_count"`
	DislikesCount int32 `bun:"dislikes_count" json:"dislikes_count"`
	CommentsCount int32 `bun:"comments_count" json:"comments_count"`
}

// CounterDelta is a signed change applied to a Counters row.
type CounterDelta struct {
	Likes    int32
	Dislikes int32
	Comments int32
}

// IsZero reports whether applying d would change nothing.
func (d CounterDelta) IsZero() bool {
	return d.Likes == 0 && d.Dislikes == 0 && d.Comments == 0
}

// Add returns the component-wise sum of d and o.
func (d CounterDelta) Add(o CounterDelta) CounterDelta {
	return CounterDelta{
		Likes:    d.Likes + o.Likes,
		Dislikes: d.Dislikes + o.Dislikes,
		Comments: d.Comments + o.Comments,
	}
}

// Apply returns c with d added.
func (c Counters) Apply(d CounterDelta) Counters {
	return Counters{
		LikesCount:    c.LikesCount + d.Likes,
		DislikesCount: c.DislikesCount + d.Dislikes,
		CommentsCount: c.CommentsCount + d.Comments,
	}
}

// VoteDelta returns the counter change contributed by a single vote of type v.
func VoteDelta(v enum.VoteType) CounterDelta {
	switch v {
	case enum.VoteTypeLike:
		return CounterDelta{Likes: 1}
	case enum.VoteTypeDislike:
		return CounterDelta{Dislikes: 1}
	case enum.VoteTypeClear:
		return CounterDelta{}
	}
	return CounterDelta{}
}

// Negate returns the inverse of d.
func (d CounterDelta) Negate() CounterDelta {
	return CounterDelta{Likes: -d.Likes, Dislikes: -d.Dislikes, Comments: -d.Comments}
}

// VoteRequest is the input to the counter aggregator. VoteType clear retracts.
type VoteRequest struct {
	UserID   uuid.UUID
	Target   TargetRef
	VoteType enum.VoteType
}
