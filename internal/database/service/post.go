package service

import (
	"context"
	"time"

	"github.com/biasnet/influence/internal/database/dbretry"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/biasnet/influence/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxContentLength is the longest text a post or comment may carry, in runes.
const maxContentLength = 10000

// PostService publishes posts and comments. Comment counters on posts are kept
// in step through the counter service inside the same transaction.
type PostService struct {
	store       ContentStore
	counters    *CounterService
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

// NewPost creates a new post service.
func NewPost(store ContentStore, counters *CounterService, maxAttempts int, logger *zap.Logger) *PostService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	return &PostService{
		store:       store,
		counters:    counters,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger.Named("post_service"),
	}
}

// CreatePost publishes a post on a group or profile wall.
func (s *PostService) CreatePost(ctx context.Context, req *types.CreatePostRequest) (*types.Post, error) {
	if !req.OwnerType.IsAOwnerType() || req.OwnerID == uuid.Nil {
		return nil, types.ErrInvalidOwner
	}

	text := utils.TruncateRunes(utils.NormalizeContent(req.TextContent), maxContentLength)
	if text == "" && req.ImagePath == "" && req.VideoURL == "" {
		return nil, types.ErrEmptyContent
	}

	now := s.now()
	post := &types.Post{
		ID:          uuid.New(),
		AuthorID:    req.AuthorID,
		OwnerType:   req.OwnerType,
		OwnerID:     req.OwnerID,
		TextContent: text,
		ImagePath:   req.ImagePath,
		VideoURL:    req.VideoURL,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := dbretry.Conflict(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx ContentTx) error {
			if err := requireProfile(ctx, tx, req.AuthorID); err != nil {
				return err
			}

			if err := requireOwner(ctx, tx, req.OwnerType, req.OwnerID); err != nil {
				return err
			}

			return tx.InsertPost(ctx, post)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Post created",
		zap.String("postID", post.ID.String()),
		zap.String("owner", req.OwnerType.String()+":"+req.OwnerID.String()))

	return post, nil
}

// CreateComment adds a comment to a post and increments its comment counter.
// A reply must point at a comment of the same post.
func (s *PostService) CreateComment(ctx context.Context, req *types.CreateCommentRequest) (*types.Comment, error) {
	text := utils.TruncateRunes(utils.NormalizeContent(req.TextContent), maxContentLength)
	if text == "" && req.ImagePath == "" && req.VideoURL == "" {
		return nil, types.ErrEmptyContent
	}

	now := s.now()
	comment := &types.Comment{
		ID:          uuid.New(),
		PostID:      req.PostID,
		AuthorID:    req.AuthorID,
		ReplyTo:     req.ReplyTo,
		TextContent: text,
		ImagePath:   req.ImagePath,
		VideoURL:    req.VideoURL,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := dbretry.Conflict(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx ContentTx) error {
			if err := requireProfile(ctx, tx, req.AuthorID); err != nil {
				return err
			}

			if _, err := tx.GetPost(ctx, req.PostID); err != nil {
				return err
			}

			if req.ReplyTo != uuid.Nil {
				parent, err := tx.GetComment(ctx, req.ReplyTo)
				if err != nil {
					return err
				}
				if parent.PostID != req.PostID {
					return types.ErrInvalidReply
				}
			}

			if err := tx.InsertComment(ctx, comment); err != nil {
				return err
			}

			return s.counters.OnCommentCreated(ctx, tx, req.PostID)
		})
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment removes a comment written by authorID along with its votes and
// decrements the post's comment counter. Replies survive with reply_to cleared.
func (s *PostService) DeleteComment(ctx context.Context, commentID, authorID uuid.UUID) error {
	return dbretry.Conflict(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx ContentTx) error {
			comment, err := tx.GetComment(ctx, commentID)
			if err != nil {
				return err
			}

			if comment.AuthorID == uuid.Nil || comment.AuthorID != authorID {
				return types.ErrNotCommentAuthor
			}

			if err := tx.DeleteVotesForTarget(ctx, types.CommentTarget(commentID)); err != nil {
				return err
			}

			if err := tx.DeleteComment(ctx, commentID); err != nil {
				return err
			}

			return s.counters.OnCommentDeleted(ctx, tx, comment.PostID)
		})
	})
}

func requireProfile(ctx context.Context, tx ContentTx, userID uuid.UUID) error {
	exists, err := tx.ProfileExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrProfileNotFound
	}
	return nil
}

func requireOwner(ctx context.Context, tx ContentTx, ownerType enum.OwnerType, ownerID uuid.UUID) error {
	switch ownerType {
	case enum.OwnerTypeGroup:
		exists, err := tx.GroupExists(ctx, ownerID)
		if err != nil {
			return err
		}
		if !exists {
			return types.ErrGroupNotFound
		}
	case enum.OwnerTypeProfile:
		return requireProfile(ctx, tx, ownerID)
	default:
		return types.ErrInvalidOwner
	}
	return nil
}
