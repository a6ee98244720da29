package service

import (
	"context"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/dbretry"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// voteAction is the row change a vote request turns into.
type voteAction int

const (
	voteNone voteAction = iota
	voteInsert
	voteUpdate
	voteDelete
)

// planVote decides what happens to the stored vote and its target's counters
// when a user moves from prior (nil for no vote) to next.
func planVote(prior *types.Vote, next enum.VoteType) (voteAction, types.CounterDelta) {
	switch {
	case prior == nil && next == enum.VoteTypeClear:
		return voteNone, types.CounterDelta{}
	case prior == nil:
		return voteInsert, types.VoteDelta(next)
	case next == enum.VoteTypeClear:
		return voteDelete, types.VoteDelta(prior.VoteType).Negate()
	case prior.VoteType == next:
		return voteNone, types.CounterDelta{}
	default:
		return voteUpdate, types.VoteDelta(next).Add(types.VoteDelta(prior.VoteType).Negate())
	}
}

// CounterService keeps the like, dislike and comment counters of posts and
// comments equal to the rows they summarize.
type CounterService struct {
	store       ContentStore
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

// NewCounter creates a new counter service.
func NewCounter(store ContentStore, maxAttempts int, logger *zap.Logger) *CounterService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	return &CounterService{
		store:       store,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger.Named("counter_service"),
	}
}

// ApplyVote records, changes or clears a user's vote on a post or comment and
// adjusts the target's counters in the same transaction.
func (s *CounterService) ApplyVote(ctx context.Context, req *types.VoteRequest) *types.VoteOutcome {
	if req.Target.IsZero() {
		return types.VoteFailed(types.ErrInvalidTarget)
	}
	if !req.VoteType.IsAVoteType() {
		return types.VoteFailed(fmt.Errorf("%w: %d", types.ErrInvalidVoteType, req.VoteType))
	}

	var (
		counters *types.Counters
		message  string
	)

	err := dbretry.Conflict(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx ContentTx) error {
			var err error
			counters, message, err = s.applyVoteInTx(ctx, tx, req)
			return err
		})
	})
	if err != nil {
		outcome := types.VoteFailed(err)
		if outcome.Code == enum.OutcomeCodeInternal || outcome.Code == enum.OutcomeCodeConflict {
			s.logger.Error("Failed to apply vote",
				zap.String("userID", req.UserID.String()),
				zap.String("target", req.Target.String()),
				zap.Error(err))
		}
		return outcome
	}

	return types.VoteApplied(counters, message)
}

func (s *CounterService) applyVoteInTx(
	ctx context.Context, tx ContentTx, req *types.VoteRequest,
) (*types.Counters, string, error) {
	exists, err := tx.ProfileExists(ctx, req.UserID)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", types.ErrProfileNotFound
	}

	// Reading the counters also proves the target exists.
	current, err := tx.GetCounters(ctx, req.Target)
	if err != nil {
		return nil, "", err
	}

	prior, err := tx.GetVoteForUpdate(ctx, req.UserID, req.Target)
	if err != nil {
		return nil, "", err
	}

	action, delta := planVote(prior, req.VoteType)

	switch action {
	case voteNone:
		return current, "vote unchanged", nil
	case voteInsert:
		err = tx.InsertVote(ctx, &types.Vote{
			ID:         uuid.New(),
			UserID:     req.UserID,
			TargetType: req.Target.Type(),
			TargetID:   req.Target.ID(),
			VoteType:   req.VoteType,
			CreatedAt:  s.now(),
		})
	case voteUpdate:
		err = tx.UpdateVoteType(ctx, prior.ID, req.VoteType)
	case voteDelete:
		err = tx.DeleteVote(ctx, prior.ID)
	}
	if err != nil {
		return nil, "", err
	}

	counters, err := tx.AdjustCounters(ctx, req.Target, delta)
	if err != nil {
		return nil, "", err
	}

	if action == voteDelete {
		return counters, "vote removed", nil
	}
	return counters, "vote recorded", nil
}

// OnCommentCreated increments the post's comment counter inside tx.
func (s *CounterService) OnCommentCreated(ctx context.Context, tx ContentTx, postID uuid.UUID) error {
	if _, err := tx.AdjustCounters(ctx, types.PostTarget(postID), types.CounterDelta{Comments: 1}); err != nil {
		return fmt.Errorf("failed to increment comment count: %w", err)
	}
	return nil
}

// OnCommentDeleted decrements the post's comment counter inside tx.
func (s *CounterService) OnCommentDeleted(ctx context.Context, tx ContentTx, postID uuid.UUID) error {
	if _, err := tx.AdjustCounters(ctx, types.PostTarget(postID), types.CounterDelta{Comments: -1}); err != nil {
		return fmt.Errorf("failed to decrement comment count: %w", err)
	}
	return nil
}
