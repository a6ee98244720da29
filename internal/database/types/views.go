package types

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BiasWithDetails is a row of the biases_with_details view.
type BiasWithDetails struct {
	bun.BaseModel `bun:"table:biases_with_details"`

	BiasID          uuid.UUID `bun:",type:uuid" json:"bias_id"`
	UserID          uuid.UUID `bun:",type:uuid" json:"user_id"`
	GroupID         uuid.UUID `bun:",type:uuid" json:"group_id"`
	InfluencePoints int32     `json:"influence_points"`
	CreatedAt       time.Time `json:"created_at"`
	GroupName       string    `json:"group_name"`
	GroupSlug       string    `json:"group_slug"`
	FlagPath        string    `bun:",nullzero"  json:"flag_path,omitempty"`
	CountryCode     string    `bun:",nullzero"  json:"country_code,omitempty"`
	CategoryID      uuid.UUID `bun:",type:uuid" json:"category_id"`
	CategoryName    string    `json:"category_name"`
}

// UserBiasForPopover is one bias of an author shown next to their content,
// restricted to the category of the group being browsed.
type UserBiasForPopover struct {
	BiasID          uuid.UUID `bun:"bias_id"          json:"bias_id"`
	GroupID         uuid.UUID `bun:"group_id"         json:"group_id"`
	GroupName       string    `bun:"group_name"       json:"group_name"`
	GroupSlug       string    `bun:"group_slug"       json:"group_slug"`
	FlagPath        string    `bun:"flag_path"        json:"flag_path,omitempty"`
	CountryCode     string    `bun:"country_code"     json:"country_code,omitempty"`
	InfluencePoints int32     `bun:"influence_points" json:"influence_points"`
	// CurrentUserEndorsement is the viewer's active endorsement on this bias.
	CurrentUserEndorsement *enum.EndorsementType `bun:"current_user_endorsement" json:"current_user_endorsement,omitempty"`
}

// PostWithAuthor is a row of the posts_with_author_info view.
type PostWithAuthor struct {
	bun.BaseModel `bun:"table:posts_with_author_info"`
	Post          `bun:",extend"`

	AuthorUsername   string `bun:",nullzero" json:"author_username,omitempty"`
	AuthorAvatarPath string `bun:",nullzero" json:"author_avatar_path,omitempty"`
}

// CommentWithAuthor is a row of the comments_with_author_info view.
type CommentWithAuthor struct {
	bun.BaseModel `bun:"table:comments_with_author_info"`
	Comment       `bun:",extend"`

	AuthorUsername   string `bun:",nullzero" json:"author_username,omitempty"`
	AuthorAvatarPath string `bun:",nullzero" json:"author_avatar_path,omitempty"`
}

// LeaderboardEntry is a row of the influence_leaderboard materialized view.
type LeaderboardEntry struct {
	bun.BaseModel `bun:"table:influence_leaderboard"`

	GroupID         uuid.UUID `bun:",type:uuid" json:"group_id"`
	BiasID          uuid.UUID `bun:",type:uuid" json:"bias_id"`
	UserID          uuid.UUID `bun:",type:uuid" json:"user_id"`
	Username        string    `json:"username"`
	AvatarPath      string    `bun:",nullzero"  json:"avatar_path,omitempty"`
	InfluencePoints int32     `json:"influence_points"`
	Rank            int64     `json:"rank"`
}

// PostCursor is a keyset pagination cursor over posts ordered newest first.
type PostCursor struct {
	CreatedAt time.Time `json:"created_at"`
	PostID    uuid.UUID `json:"post_id"`
}

// Encode returns the opaque string form of the cursor.
func (c *PostCursor) Encode() string {
	data, err := sonic.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodePostCursor parses a cursor produced by Encode. An empty string yields nil.
func DecodePostCursor(s string) (*PostCursor, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent cursor means first page
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	var cursor PostCursor
	if err := sonic.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	return &cursor, nil
}

// OwnerRef identifies the wall a list of posts belongs to.
type OwnerRef struct {
	Type enum.OwnerType
	ID   uuid.UUID
}

// PostThread is a post together with all of its comments.
type PostThread struct {
	Post     *PostWithAuthor      `json:"post"`
	Comments []*CommentWithAuthor `json:"comments"`
}

// PostPage is one page of a wall. NextCursor is empty on the last page.
type PostPage struct {
	Posts      []*PostWithAuthor `json:"posts"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
