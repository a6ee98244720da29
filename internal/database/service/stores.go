package service

import (
	"context"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
)

// LedgerStore runs endorsement work inside a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type LedgerStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the set of ledger operations available inside a transaction.
type LedgerTx interface {
	// LockBias reads the bias and holds its row lock until the transaction ends.
	LockBias(ctx context.Context, biasID uuid.UUID) (*types.Bias, error)
	ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error)
	GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error)
	// GetActiveEndorsement returns nil when the author has no active endorsement.
	GetActiveEndorsement(ctx context.Context, authorID, biasID uuid.UUID) (*types.Endorsement, error)
	SupersedeEndorsement(ctx context.Context, endorsementID uuid.UUID, at time.Time) error
	InsertEndorsement(ctx context.Context, endorsement *types.Endorsement) error
	SetInfluencePoints(ctx context.Context, biasID uuid.UUID, points int32) error
	InsertBiasIfMissing(ctx context.Context, bias *types.Bias) (*types.Bias, bool, error)
}

// ContentStore runs post, comment and vote work inside a single transaction.
type ContentStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx ContentTx) error) error
}

// ContentTx is the set of content operations available inside a transaction.
type ContentTx interface {
	ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error)
	GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error)

	GetCounters(ctx context.Context, target types.TargetRef) (*types.Counters, error)
	// GetVoteForUpdate returns nil when the user has not voted on the target.
	GetVoteForUpdate(ctx context.Context, userID uuid.UUID, target types.TargetRef) (*types.Vote, error)
	InsertVote(ctx context.Context, vote *types.Vote) error
	UpdateVoteType(ctx context.Context, voteID uuid.UUID, voteType enum.VoteType) error
	DeleteVote(ctx context.Context, voteID uuid.UUID) error
	DeleteVotesForTarget(ctx context.Context, target types.TargetRef) error
	// AdjustCounters atomically adds delta to the target row and returns the result.
	AdjustCounters(ctx context.Context, target types.TargetRef, delta types.CounterDelta) (*types.Counters, error)

	GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error)
	InsertPost(ctx context.Context, post *types.Post) error
	GetComment(ctx context.Context, commentID uuid.UUID) (*types.Comment, error)
	InsertComment(ctx context.Context, comment *types.Comment) error
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

// ViewStore reads the denormalized views. Nothing written through it.
type ViewStore interface {
	GetGroup(ctx context.Context, groupID uuid.UUID) (*types.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*types.Group, error)
	GetUserBiasesForCategory(
		ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
	) ([]*types.UserBiasForPopover, error)
	GetBiasesWithDetails(ctx context.Context, userID uuid.UUID) ([]*types.BiasWithDetails, error)
	GetPostWithAuthor(ctx context.Context, postID uuid.UUID) (*types.PostWithAuthor, error)
	ListPostsWithAuthor(
		ctx context.Context, owner types.OwnerRef, cursor *types.PostCursor, limit int,
	) ([]*types.PostWithAuthor, error)
	ListCommentsWithAuthor(ctx context.Context, postID uuid.UUID) ([]*types.CommentWithAuthor, error)
	GetLeaderboard(ctx context.Context, groupID uuid.UUID, limit int) ([]*types.LeaderboardEntry, error)
	// RefreshLeaderboard refreshes the leaderboard when older than stale.
	RefreshLeaderboard(ctx context.Context, stale time.Duration) error
	GetEndorsementHistory(ctx context.Context, biasID uuid.UUID, limit int) ([]*types.Endorsement, error)
}

// PopoverCache is a read-through cache for bias popovers. Implementations
// must fall back to load when the cache is unavailable.
type PopoverCache interface {
	Popover(
		ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
		load func(context.Context) ([]*types.UserBiasForPopover, error),
	) ([]*types.UserBiasForPopover, error)
	// InvalidateAuthor makes every cached popover of the author stale.
	InvalidateAuthor(ctx context.Context, authorID uuid.UUID) error
}
