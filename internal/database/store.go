package database

import (
	"context"
	"time"

	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewStores binds the service store interfaces to PostgreSQL through the models.
func NewStores(db *bun.DB, repo *Repository) Stores {
	return Stores{
		Ledger:  &ledgerStore{db: db, repo: repo},
		Content: &contentStore{db: db, repo: repo},
		View:    &viewStore{repo: repo},
	}
}

type ledgerStore struct {
	db   *bun.DB
	repo *Repository
}

func (s *ledgerStore) RunInTx(ctx context.Context, fn func(context.Context, service.LedgerTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &ledgerTx{tx: tx, repo: s.repo})
	})
}

type ledgerTx struct {
	tx   bun.Tx
	repo *Repository
}

func (t *ledgerTx) LockBias(ctx context.Context, biasID uuid.UUID) (*types.Bias, error) {
	return t.repo.Bias().LockBias(ctx, t.tx, biasID)
}

func (t *ledgerTx) ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return t.repo.Profile().Exists(ctx, t.tx, userID)
}

func (t *ledgerTx) GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error) {
	return t.repo.Group().Exists(ctx, t.tx, groupID)
}

func (t *ledgerTx) GetActiveEndorsement(
	ctx context.Context, authorID, biasID uuid.UUID,
) (*types.Endorsement, error) {
	return t.repo.Endorsement().GetActive(ctx, t.tx, authorID, biasID)
}

func (t *ledgerTx) SupersedeEndorsement(ctx context.Context, endorsementID uuid.UUID, at time.Time) error {
	return t.repo.Endorsement().Supersede(ctx, t.tx, endorsementID, at)
}

func (t *ledgerTx) InsertEndorsement(ctx context.Context, endorsement *types.Endorsement) error {
	return t.repo.Endorsement().Insert(ctx, t.tx, endorsement)
}

func (t *ledgerTx) SetInfluencePoints(ctx context.Context, biasID uuid.UUID, points int32) error {
	return t.repo.Bias().SetInfluencePoints(ctx, t.tx, biasID, points)
}

func (t *ledgerTx) InsertBiasIfMissing(ctx context.Context, bias *types.Bias) (*types.Bias, bool, error) {
	return t.repo.Bias().InsertIfMissing(ctx, t.tx, bias)
}

type contentStore struct {
	db   *bun.DB
	repo *Repository
}

func (s *contentStore) RunInTx(ctx context.Context, fn func(context.Context, service.ContentTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &contentTx{tx: tx, repo: s.repo})
	})
}

type contentTx struct {
	tx   bun.Tx
	repo *Repository
}

func (t *contentTx) ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return t.repo.Profile().Exists(ctx, t.tx, userID)
}

func (t *contentTx) GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error) {
	return t.repo.Group().Exists(ctx, t.tx, groupID)
}

func (t *contentTx) GetCounters(ctx context.Context, target types.TargetRef) (*types.Counters, error) {
	return t.repo.Vote().GetCounters(ctx, t.tx, target)
}

func (t *contentTx) GetVoteForUpdate(
	ctx context.Context, userID uuid.UUID, target types.TargetRef,
) (*types.Vote, error) {
	return t.repo.Vote().GetForUpdate(ctx, t.tx, userID, target)
}

func (t *contentTx) InsertVote(ctx context.Context, vote *types.Vote) error {
	return t.repo.Vote().Insert(ctx, t.tx, vote)
}

func (t *contentTx) UpdateVoteType(ctx context.Context, voteID uuid.UUID, voteType enum.VoteType) error {
	return t.repo.Vote().UpdateType(ctx, t.tx, voteID, voteType)
}

func (t *contentTx) DeleteVote(ctx context.Context, voteID uuid.UUID) error {
	return t.repo.Vote().Delete(ctx, t.tx, voteID)
}

func (t *contentTx) DeleteVotesForTarget(ctx context.Context, target types.TargetRef) error {
	return t.repo.Vote().DeleteForTarget(ctx, t.tx, target)
}

func (t *contentTx) AdjustCounters(
	ctx context.Context, target types.TargetRef, delta types.CounterDelta,
) (*types.Counters, error) {
	return t.repo.Vote().AdjustCounters(ctx, t.tx, target, delta)
}

func (t *contentTx) GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	return t.repo.Post().GetPost(ctx, t.tx, postID)
}

func (t *contentTx) InsertPost(ctx context.Context, post *types.Post) error {
	return t.repo.Post().InsertPost(ctx, t.tx, post)
}

func (t *contentTx) GetComment(ctx context.Context, commentID uuid.UUID) (*types.Comment, error) {
	return t.repo.Post().GetComment(ctx, t.tx, commentID)
}

func (t *contentTx) InsertComment(ctx context.Context, comment *types.Comment) error {
	return t.repo.Post().InsertComment(ctx, t.tx, comment)
}

func (t *contentTx) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	return t.repo.Post().DeleteComment(ctx, t.tx, commentID)
}

type viewStore struct {
	repo *Repository
}

func (s *viewStore) GetGroup(ctx context.Context, groupID uuid.UUID) (*types.Group, error) {
	return s.repo.Group().GetGroup(ctx, groupID)
}

func (s *viewStore) GetGroupBySlug(ctx context.Context, slug string) (*types.Group, error) {
	return s.repo.Group().GetGroupBySlug(ctx, slug)
}

func (s *viewStore) GetUserBiasesForCategory(
	ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
) ([]*types.UserBiasForPopover, error) {
	return s.repo.ReadView().GetUserBiasesForCategory(ctx, authorID, contextGroupID, currentUserID)
}

func (s *viewStore) GetBiasesWithDetails(ctx context.Context, userID uuid.UUID) ([]*types.BiasWithDetails, error) {
	return s.repo.ReadView().GetBiasesWithDetails(ctx, userID)
}

func (s *viewStore) GetPostWithAuthor(ctx context.Context, postID uuid.UUID) (*types.PostWithAuthor, error) {
	return s.repo.ReadView().GetPostWithAuthor(ctx, postID)
}

func (s *viewStore) ListPostsWithAuthor(
	ctx context.Context, owner types.OwnerRef, cursor *types.PostCursor, limit int,
) ([]*types.PostWithAuthor, error) {
	return s.repo.ReadView().ListPostsWithAuthor(ctx, owner, cursor, limit)
}

func (s *viewStore) ListCommentsWithAuthor(
	ctx context.Context, postID uuid.UUID,
) ([]*types.CommentWithAuthor, error) {
	return s.repo.ReadView().ListCommentsWithAuthor(ctx, postID)
}

func (s *viewStore) GetLeaderboard(
	ctx context.Context, groupID uuid.UUID, limit int,
) ([]*types.LeaderboardEntry, error) {
	return s.repo.ReadView().GetLeaderboard(ctx, groupID, limit)
}

func (s *viewStore) RefreshLeaderboard(ctx context.Context, stale time.Duration) error {
	_, err := s.repo.View().RefreshIfStale(ctx, types.LeaderboardViewName, stale)
	return err
}

func (s *viewStore) GetEndorsementHistory(
	ctx context.Context, biasID uuid.UUID, limit int,
) ([]*types.Endorsement, error) {
	return s.repo.Endorsement().GetHistory(ctx, biasID, limit)
}
