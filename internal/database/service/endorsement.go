package service

import (
	"context"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/dbretry"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Messages returned on successful endorsement outcomes.
const (
	msgEndorsementApplied   = "endorsement applied"
	msgEndorsementChanged   = "endorsement updated"
	msgEndorsementUnchanged = "endorsement already applied"
	msgEndorsementRetracted = "endorsement retracted"
	msgNothingToRetract     = "no active endorsement"
)

// EndorsementService applies endorsements to biases and keeps each bias total
// equal to the sum of its active endorsements.
type EndorsementService struct {
	store  LedgerStore
	policy *EndorsementPolicy
	cache  PopoverCache
	tracer trace.Tracer
	now    func() time.Time
	logger *zap.Logger
}

// NewEndorsement creates a new endorsement service. cache may be nil.
func NewEndorsement(
	store LedgerStore, policy *EndorsementPolicy, cache PopoverCache, logger *zap.Logger,
) *EndorsementService {
	if policy == nil {
		policy = DefaultEndorsementPolicy()
	}

	return &EndorsementService{
		store:  store,
		policy: policy,
		cache:  cache,
		tracer: otel.Tracer("endorsement"),
		now:    time.Now,
		logger: logger.Named("endorsement_service"),
	}
}

// endorsementResult is what a committed transaction reports back.
type endorsementResult struct {
	points  int32
	ownerID uuid.UUID
	message string
	changed bool
}

// ApplyEndorsement records an endorsement by req.AuthorID on req.BiasID and
// returns the new bias total. Repeating the author's current endorsement type
// is a successful no-op. It never returns an error; failures are reported in
// the outcome.
func (s *EndorsementService) ApplyEndorsement(ctx context.Context, req *types.EndorsementRequest) *types.Outcome {
	ctx, span := s.tracer.Start(ctx, "endorsement.Apply",
		trace.WithAttributes(
			attribute.String("bias_id", req.BiasID.String()),
			attribute.String("author_id", req.AuthorID.String()),
			attribute.String("endorsement_type", req.Type.String()),
		),
	)
	defer span.End()

	points, err := s.policy.Resolve(req.Type, req.PointsToAward)
	if err != nil {
		return s.fail(span, "Endorsement rejected", err, req.BiasID, req.AuthorID)
	}

	var result endorsementResult

	err = dbretry.Conflict(ctx, s.policy.MaxAttempts(), func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			var err error
			result, err = s.applyInTx(ctx, tx, req, points)
			return err
		})
	})
	if err != nil {
		return s.fail(span, "Failed to apply endorsement", err, req.BiasID, req.AuthorID)
	}

	if result.changed {
		s.invalidate(ctx, result.ownerID)
	}

	span.SetAttributes(attribute.Int("influence_points", int(result.points)))
	s.logger.Debug("Endorsement applied",
		zap.String("biasID", req.BiasID.String()),
		zap.String("authorID", req.AuthorID.String()),
		zap.String("type", req.Type.String()),
		zap.Int32("points", result.points))

	return types.EndorsementApplied(result.points, result.message)
}

// applyInTx runs one attempt of ApplyEndorsement. The bias lock is taken
// first so every writer to the same bias serializes on it.
func (s *EndorsementService) applyInTx(
	ctx context.Context, tx LedgerTx, req *types.EndorsementRequest, points int32,
) (endorsementResult, error) {
	bias, err := tx.LockBias(ctx, req.BiasID)
	if err != nil {
		return endorsementResult{}, err
	}

	exists, err := tx.ProfileExists(ctx, req.AuthorID)
	if err != nil {
		return endorsementResult{}, err
	}
	if !exists {
		return endorsementResult{}, types.ErrProfileNotFound
	}

	if bias.UserID == req.AuthorID {
		return endorsementResult{}, types.ErrSelfEndorsement
	}

	active, err := tx.GetActiveEndorsement(ctx, req.AuthorID, req.BiasID)
	if err != nil {
		return endorsementResult{}, err
	}

	result := endorsementResult{
		points:  bias.InfluencePoints,
		ownerID: bias.UserID,
		message: msgEndorsementApplied,
	}

	if active != nil {
		if active.EndorsementType == req.Type {
			result.message = msgEndorsementUnchanged
			return result, nil
		}

		if err := tx.SupersedeEndorsement(ctx, active.ID, s.now()); err != nil {
			return endorsementResult{}, err
		}
		result.points -= active.PointsAwarded
		result.message = msgEndorsementChanged
	}

	err = tx.InsertEndorsement(ctx, &types.Endorsement{
		ID:              uuid.New(),
		AuthorID:        req.AuthorID,
		BiasID:          req.BiasID,
		EndorsementType: req.Type,
		PointsAwarded:   points,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return endorsementResult{}, err
	}
	result.points += points

	if err := tx.SetInfluencePoints(ctx, req.BiasID, result.points); err != nil {
		return endorsementResult{}, err
	}

	result.changed = true
	return result, nil
}

// RetractEndorsement closes the author's active endorsement on a bias and
// removes its points. Retracting with nothing active succeeds without change.
func (s *EndorsementService) RetractEndorsement(ctx context.Context, biasID, authorID uuid.UUID) *types.Outcome {
	ctx, span := s.tracer.Start(ctx, "endorsement.Retract",
		trace.WithAttributes(
			attribute.String("bias_id", biasID.String()),
			attribute.String("author_id", authorID.String()),
		),
	)
	defer span.End()

	var result endorsementResult

	err := dbretry.Conflict(ctx, s.policy.MaxAttempts(), func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			bias, err := tx.LockBias(ctx, biasID)
			if err != nil {
				return err
			}

			result = endorsementResult{
				points:  bias.InfluencePoints,
				ownerID: bias.UserID,
				message: msgNothingToRetract,
			}

			active, err := tx.GetActiveEndorsement(ctx, authorID, biasID)
			if err != nil {
				return err
			}
			if active == nil {
				return nil
			}

			if err := tx.SupersedeEndorsement(ctx, active.ID, s.now()); err != nil {
				return err
			}

			result.points -= active.PointsAwarded
			if err := tx.SetInfluencePoints(ctx, biasID, result.points); err != nil {
				return err
			}

			result.message = msgEndorsementRetracted
			result.changed = true
			return nil
		})
	})
	if err != nil {
		return s.fail(span, "Failed to retract endorsement", err, biasID, authorID)
	}

	if result.changed {
		s.invalidate(ctx, result.ownerID)
	}

	return types.EndorsementApplied(result.points, result.message)
}

// EnsureBias returns the bias of a user in a group, creating it with zero
// points when missing.
func (s *EndorsementService) EnsureBias(ctx context.Context, userID, groupID uuid.UUID) (*types.Bias, error) {
	var (
		bias    *types.Bias
		created bool
	)

	err := dbretry.Conflict(ctx, s.policy.MaxAttempts(), func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			exists, err := tx.ProfileExists(ctx, userID)
			if err != nil {
				return err
			}
			if !exists {
				return types.ErrProfileNotFound
			}

			exists, err = tx.GroupExists(ctx, groupID)
			if err != nil {
				return err
			}
			if !exists {
				return types.ErrGroupNotFound
			}

			bias, created, err = tx.InsertBiasIfMissing(ctx, &types.Bias{
				ID:        uuid.New(),
				UserID:    userID,
				GroupID:   groupID,
				CreatedAt: s.now(),
			})
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bias: %w", err)
	}

	if created {
		s.invalidate(ctx, userID)
	}

	return bias, nil
}

// InvalidateOwners drops the cached popovers of users whose totals were
// changed outside the engine, such as by a reconcile repair.
func (s *EndorsementService) InvalidateOwners(ctx context.Context, ownerIDs ...uuid.UUID) {
	for _, ownerID := range ownerIDs {
		s.invalidate(ctx, ownerID)
	}
}

// invalidate bumps the author's popover version after a committed change.
func (s *EndorsementService) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateAuthor(ctx, ownerID); err != nil {
		s.logger.Warn("Failed to invalidate popover cache",
			zap.String("userID", ownerID.String()),
			zap.Error(err))
	}
}

// fail converts err into a failed outcome. Internal causes are logged since
// the outcome message hides them.
func (s *EndorsementService) fail(
	span trace.Span, msg string, err error, biasID, authorID uuid.UUID,
) *types.Outcome {
	outcome := types.EndorsementFailed(err)

	span.SetAttributes(attribute.String("outcome", outcome.Code.String()))

	switch outcome.Code {
	case enum.OutcomeCodeInternal, enum.OutcomeCodeConflict:
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		s.logger.Error(msg,
			zap.String("biasID", biasID.String()),
			zap.String("authorID", authorID.String()),
			zap.String("code", outcome.Code.String()),
			zap.Error(err))
	default:
		s.logger.Debug(msg,
			zap.String("biasID", biasID.String()),
			zap.String("authorID", authorID.String()),
			zap.String("code", outcome.Code.String()),
			zap.Error(err))
	}

	return outcome
}
