package types

import (
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// ApplyEndorsementRequest is the body of POST /biases/:id/endorsements.
type ApplyEndorsementRequest struct {
	EndorsingUserID uuid.UUID            `json:"endorsing_user_id"`
	EndorsementType EndorsementTypeValue `json:"endorsement_type"`
	PointsToAward   *int32               `json:"points_to_award,omitempty"`
}

// EndorsementTypeValue is an endorsement type sent either as its number, as
// returned in popover rows, or as its name. Unknown names decode to zero,
// which is not a type.
type EndorsementTypeValue enum.EndorsementType

// UnmarshalJSON implements json.Unmarshaler.
func (v *EndorsementTypeValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := sonic.Unmarshal(data, &name); err != nil {
			return err
		}

		t, err := enum.EndorsementTypeString(name)
		if err != nil {
			t = 0
		}
		*v = EndorsementTypeValue(t)
		return nil
	}

	var number int16
	if err := sonic.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("endorsement_type must be a number or a name: %w", err)
	}
	*v = EndorsementTypeValue(number)
	return nil
}

// Type returns the endorsement type and whether it is a known one.
func (v EndorsementTypeValue) Type() (enum.EndorsementType, bool) {
	t := enum.EndorsementType(v)
	return t, t.IsAEndorsementType()
}

// EnsureBiasRequest is the body of POST /groups/:id/members.
type EnsureBiasRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// VoteRequest is the body of POST /votes.
type VoteRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	TargetType string    `json:"target_type"`
	TargetID   uuid.UUID `json:"target_id"`
	// VoteType is "like", "dislike" or "clear".
	VoteType string `json:"vote_type"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	AuthorID    uuid.UUID `json:"author_id"`
	OwnerType   string    `json:"owner_type"`
	OwnerID     uuid.UUID `json:"owner_id"`
	TextContent string    `json:"text_content"`
	ImagePath   string    `json:"image_path"`
	VideoURL    string    `json:"video_url"`
	IsAnonymous bool      `json:"is_anonymous"`
}

// CreateCommentRequest is the body of POST /posts/:id/comments.
type CreateCommentRequest struct {
	AuthorID    uuid.UUID `json:"author_id"`
	ReplyTo     uuid.UUID `json:"reply_to"`
	TextContent string    `json:"text_content"`
	ImagePath   string    `json:"image_path"`
	VideoURL    string    `json:"video_url"`
	IsAnonymous bool      `json:"is_anonymous"`
}

// ErrorResponse is returned by every endpoint that fails outside of an
// engine outcome.
type ErrorResponse struct {
	Success bool             `json:"success"`
	Code    enum.OutcomeCode `json:"code"`
	Message string           `json:"message"`
}

// UserBiasesResponse lists a user's biases. Popover rows are returned when a
// context group was given.
type UserBiasesResponse struct {
	Biases  []*types.BiasWithDetails    `json:"biases,omitempty"`
	Popover []*types.UserBiasForPopover `json:"popover,omitempty"`
}

// LeaderboardResponse is the ranking of one group.
type LeaderboardResponse struct {
	Group   *types.Group              `json:"group"`
	Entries []*types.LeaderboardEntry `json:"entries"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
