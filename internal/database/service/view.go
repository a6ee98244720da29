package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/pkg/utils"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is used when a caller asks for no particular limit.
	DefaultPageSize = 20
	// MaxPageSize caps every list query.
	MaxPageSize = 100

	defaultLeaderboardStale = 5 * time.Minute
	defaultHistoryLimit     = 50
)

// ViewService reads the denormalized views. It never writes domain rows.
type ViewService struct {
	store            ViewStore
	cache            PopoverCache
	leaderboardStale time.Duration
	logger           *zap.Logger
}

// NewView creates a new view service. cache may be nil.
func NewView(store ViewStore, cache PopoverCache, leaderboardStale time.Duration, logger *zap.Logger) *ViewService {
	if leaderboardStale <= 0 {
		leaderboardStale = defaultLeaderboardStale
	}

	return &ViewService{
		store:            store,
		cache:            cache,
		leaderboardStale: leaderboardStale,
		logger:           logger.Named("view_service"),
	}
}

// GetUserBiasesForCategory returns the author's biases in the category of the
// context group, each with the current user's active endorsement if any.
func (s *ViewService) GetUserBiasesForCategory(
	ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
) ([]*types.UserBiasForPopover, error) {
	load := func(ctx context.Context) ([]*types.UserBiasForPopover, error) {
		return s.store.GetUserBiasesForCategory(ctx, authorID, contextGroupID, currentUserID)
	}

	if s.cache == nil {
		return load(ctx)
	}

	return s.cache.Popover(ctx, authorID, contextGroupID, currentUserID, load)
}

// GetBiasesWithDetails returns every bias of a user.
func (s *ViewService) GetBiasesWithDetails(ctx context.Context, userID uuid.UUID) ([]*types.BiasWithDetails, error) {
	return s.store.GetBiasesWithDetails(ctx, userID)
}

// GetPost returns a post with its author info. Anonymous authors are masked.
func (s *ViewService) GetPost(ctx context.Context, postID uuid.UUID) (*types.PostWithAuthor, error) {
	post, err := s.store.GetPostWithAuthor(ctx, postID)
	if err != nil {
		return nil, err
	}

	return maskPost(post), nil
}

// GetPostThread fetches a post and its comments in parallel.
func (s *ViewService) GetPostThread(ctx context.Context, postID uuid.UUID) (*types.PostThread, error) {
	var (
		result types.PostThread
		mu     sync.Mutex
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		post, err := s.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Post = post
		mu.Unlock()
		return nil
	})

	p.Go(func(ctx context.Context) error {
		comments, err := s.ListComments(ctx, postID)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Comments = comments
		mu.Unlock()
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListPosts returns one page of a wall, newest first.
func (s *ViewService) ListPosts(
	ctx context.Context, owner types.OwnerRef, cursor *types.PostCursor, limit int,
) (*types.PostPage, error) {
	if !owner.Type.IsAOwnerType() || owner.ID == uuid.Nil {
		return nil, types.ErrInvalidOwner
	}

	limit = clampLimit(limit)

	// Fetch one extra row to know whether another page exists
	posts, err := s.store.ListPostsWithAuthor(ctx, owner, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &types.PostPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		last := page.Posts[limit-1]
		page.NextCursor = (&types.PostCursor{CreatedAt: last.CreatedAt, PostID: last.ID}).Encode()
	}

	for _, post := range page.Posts {
		maskPost(post)
	}

	return page, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *ViewService) ListComments(ctx context.Context, postID uuid.UUID) ([]*types.CommentWithAuthor, error) {
	comments, err := s.store.ListCommentsWithAuthor(ctx, postID)
	if err != nil {
		return nil, err
	}

	for _, comment := range comments {
		maskComment(comment)
	}

	return comments, nil
}

// GetGroupLeaderboard returns the most influential members of a group. The
// materialized view is refreshed first when stale; a failed refresh serves
// the previous contents.
func (s *ViewService) GetGroupLeaderboard(
	ctx context.Context, groupID uuid.UUID, limit int,
) ([]*types.LeaderboardEntry, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	if err := s.store.RefreshLeaderboard(ctx, s.leaderboardStale); err != nil {
		s.logger.Warn("Failed to refresh materialized view",
			zap.Error(err),
			zap.String("view", types.LeaderboardViewName))
	}

	return s.store.GetLeaderboard(ctx, groupID, clampLimit(limit))
}

// GetEndorsementHistory returns the endorsement events of a bias, newest first.
func (s *ViewService) GetEndorsementHistory(
	ctx context.Context, biasID uuid.UUID, limit int,
) ([]*types.Endorsement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.GetEndorsementHistory(ctx, biasID, min(limit, MaxPageSize))
}

// ResolveGroup finds a group by id or by slug.
func (s *ViewService) ResolveGroup(ctx context.Context, ref string) (*types.Group, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.store.GetGroup(ctx, id)
	}

	slug := utils.NewTextNormalizer().Slugify(ref)
	if slug == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrGroupNotFound, ref)
	}

	return s.store.GetGroupBySlug(ctx, slug)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}

func maskPost(post *types.PostWithAuthor) *types.PostWithAuthor {
	if post.IsAnonymous {
		post.AuthorID = uuid.Nil
		post.AuthorUsername = ""
		post.AuthorAvatarPath = ""
	}
	return post
}

func maskComment(comment *types.CommentWithAuthor) *types.CommentWithAuthor {
	if comment.IsAnonymous {
		comment.AuthorID = uuid.Nil
		comment.AuthorUsername = ""
		comment.AuthorAvatarPath = ""
	}
	return comment
}
