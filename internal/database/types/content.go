package types

import (
	"time"

	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the public side of a user account.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID          uuid.UUID  `bun:",pk,type:uuid"      json:"id"`
	Username    string     `bun:",unique,notnull"    json:"username"`
	AvatarPath  string     `bun:",nullzero"          json:"avatar_path,omitempty"`
	CountryCode string     `bun:",nullzero"          json:"country_code,omitempty"`
	Gender      string     `bun:",nullzero"          json:"gender,omitempty"`
	BirthDate   *time.Time `bun:",type:date"         json:"birth_date,omitempty"`
	CreatedAt   time.Time  `bun:",notnull"           json:"created_at"`
	UpdatedAt   time.Time  `bun:",notnull"           json:"updated_at"`
}

// Country is a country a group or profile can be attached to.
type Country struct {
	bun.BaseModel `bun:"table:countries"`

	Code      string    `bun:",pk"      json:"code"`
	Name      string    `bun:",notnull" json:"name"`
	CreatedAt time.Time `bun:",notnull" json:"created_at"`
}

// Taxon classifies groups into a hierarchy.
type Taxon struct {
	bun.BaseModel `bun:"table:taxons"`

	ID         uuid.UUID `bun:",pk,type:uuid"       json:"id"`
	Name       string    `bun:",notnull"            json:"name"`
	Level      int16     `bun:",notnull"            json:"level"`
	ParentID   uuid.UUID `bun:",type:uuid,nullzero" json:"parent_id"`
	CategoryID uuid.UUID `bun:",type:uuid,nullzero" json:"category_id"`
	CreatedAt  time.Time `bun:",notnull"            json:"created_at"`
}

// Group is a community users hold biases in. A group without CategoryGroupID is
// its own category.
type Group struct {
	bun.BaseModel `bun:"table:groups"`

	ID              uuid.UUID `bun:",pk,type:uuid"       json:"id"`
	Name            string    `bun:",notnull"            json:"name"`
	Slug            string    `bun:",unique,notnull"     json:"slug"`
	Description     string    `bun:",nullzero"           json:"description,omitempty"`
	FlagPath        string    `bun:",nullzero"           json:"flag_path,omitempty"`
	CoverImagePath  string    `bun:",nullzero"           json:"cover_image_path,omitempty"`
	CountryCode     string    `bun:",nullzero"           json:"country_code,omitempty"`
	TaxonID         uuid.UUID `bun:",type:uuid,nullzero" json:"taxon_id"`
	ParentGroupID   uuid.UUID `bun:",type:uuid,nullzero" json:"parent_group_id"`
	CategoryGroupID uuid.UUID `bun:",type:uuid,nullzero" json:"category_group_id"`
	Level           int16     `bun:",notnull,default:0"  json:"level"`
	IsOpen          bool      `bun:",notnull"            json:"is_open"`
	HasSubgroups    bool      `bun:",notnull"            json:"has_subgroups"`
	CreatedAt       time.Time `bun:",notnull"            json:"created_at"`
}

// CategoryID returns the id of the category group this group belongs to.
func (g *Group) CategoryID() uuid.UUID {
	if g.CategoryGroupID != uuid.Nil {
		return g.CategoryGroupID
	}
	return g.ID
}

// Post is a top-level item published on a group or profile wall.
type Post struct {
	bun.BaseModel `bun:"table:posts"`

	ID            uuid.UUID      `bun:",pk,type:uuid"          json:"id"`
	AuthorID      uuid.UUID      `bun:",type:uuid,nullzero"    json:"author_id"`
	OwnerType     enum.OwnerType `bun:",type:text,notnull"     json:"owner_type"`
	OwnerID       uuid.UUID      `bun:",type:uuid,notnull"     json:"owner_id"`
	TextContent   string         `bun:",nullzero"              json:"text_content,omitempty"`
	ImagePath     string         `bun:",nullzero"              json:"image_path,omitempty"`
	VideoURL      string         `bun:"video_url,nullzero"     json:"video_url,omitempty"`
	IsAnonymous   bool           `bun:",notnull"               json:"is_anonymous"`
	IsEdited      bool           `bun:",notnull"               json:"is_edited"`
	IsModerated   bool           `bun:",notnull"               json:"is_moderated"`
	LikesCount    int32          `bun:",notnull,default:0"     json:"likes_count"`
	DislikesCount int32          `bun:",notnull,default:0"     json:"dislikes_count"`
	CommentsCount int32          `bun:",notnull,default:0"     json:"comments_count"`
	CreatedAt     time.Time      `bun:",notnull"               json:"created_at"`
	UpdatedAt     time.Time      `bun:",notnull"               json:"updated_at"`
}

// Counters returns the aggregate columns of the post.
func (p *Post) Counters() Counters {
	return Counters{LikesCount: p.LikesCount, DislikesCount: p.DislikesCount, CommentsCount: p.CommentsCount}
}

// Comment is a reply to a post, optionally threaded under another comment of
// the same post.
type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID            uuid.UUID `bun:",pk,type:uuid"          json:"id"`
	PostID        uuid.UUID `bun:",type:uuid,notnull"     json:"post_id"`
	AuthorID      uuid.UUID `bun:",type:uuid,nullzero"    json:"author_id"`
	ReplyTo       uuid.UUID `bun:",type:uuid,nullzero"    json:"reply_to"`
	TextContent   string    `bun:",nullzero"              json:"text_content,omitempty"`
	ImagePath     string    `bun:",nullzero"              json:"image_path,omitempty"`
	VideoURL      string    `bun:"video_url,nullzero"     json:"video_url,omitempty"`
	IsAnonymous   bool      `bun:",notnull"               json:"is_anonymous"`
	IsEdited      bool      `bun:",notnull"               json:"is_edited"`
	IsModerated   bool      `bun:",notnull"               json:"is_moderated"`
	LikesCount    int32     `bun:",notnull,default:0"     json:"likes_count"`
	DislikesCount int32     `bun:",notnull,default:0"     json:"dislikes_count"`
	CreatedAt     time.Time `bun:",notnull"               json:"created_at"`
	UpdatedAt     time.Time `bun:",notnull"               json:"updated_at"`
}

// Counters returns the aggregate columns of the comment.
func (c *Comment) Counters() Counters {
	return Counters{LikesCount: c.LikesCount, DislikesCount: c.DislikesCount}
}

// CreatePostRequest is the input for publishing a post.
type CreatePostRequest struct {
	AuthorID    uuid.UUID
	OwnerType   enum.OwnerType
	OwnerID     uuid.UUID
	TextContent string
	ImagePath   string
	VideoURL    string
	IsAnonymous bool
}

// CreateCommentRequest is the input for commenting on a post.
type CreateCommentRequest struct {
	PostID      uuid.UUID
	AuthorID    uuid.UUID
	ReplyTo     uuid.UUID
	TextContent string
	ImagePath   string
	VideoURL    string
	IsAnonymous bool
}
