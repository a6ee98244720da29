package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/database/storetest"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/biasnet/influence/internal/setup/config"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// endorsementFixture is a bias owned by one user with two potential endorsers.
type endorsementFixture struct {
	store *storetest.Store
	svc   *service.EndorsementService
	cache *recordingCache
	owner *types.Profile
	alice *types.Profile
	carol *types.Profile
	group *types.Group
	bias  *types.Bias
}

func newEndorsementFixture(t *testing.T, policy *service.EndorsementPolicy) *endorsementFixture {
	t.Helper()

	store := storetest.New()
	cache := &recordingCache{}

	f := &endorsementFixture{
		store: store,
		svc:   service.NewEndorsement(store, policy, cache, zap.NewNop()),
		cache: cache,
		owner: store.AddProfile("owner"),
		alice: store.AddProfile("alice"),
		carol: store.AddProfile("carol"),
		group: store.AddGroup("Seoul FC", "seoul-fc", uuid.Nil),
	}
	f.bias = store.AddBias(f.owner.ID, f.group.ID)

	return f
}

func (f *endorsementFixture) endorse(
	ctx context.Context, author uuid.UUID, t enum.EndorsementType,
) *types.Outcome {
	return f.svc.ApplyEndorsement(ctx, &types.EndorsementRequest{
		BiasID:   f.bias.ID,
		AuthorID: author,
		Type:     t,
	})
}

func (f *endorsementFixture) points(t *testing.T) int32 {
	t.Helper()
	b, ok := f.store.Bias(f.bias.ID)
	require.True(t, ok)
	return b.InfluencePoints
}

// recordingCache counts invalidations and serves every popover from load.
type recordingCache struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (c *recordingCache) Popover(
	ctx context.Context, _, _, _ uuid.UUID,
	load func(context.Context) ([]*types.UserBiasForPopover, error),
) ([]*types.UserBiasForPopover, error) {
	return load(ctx)
}

func (c *recordingCache) InvalidateAuthor(_ context.Context, authorID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, authorID)
	return nil
}

func (c *recordingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

func requireSuccess(t *testing.T, outcome *types.Outcome, points int32) {
	t.Helper()
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, enum.OutcomeCodeOK, outcome.Code)
	require.NotNil(t, outcome.NewInfluencePoints)
	assert.Equal(t, points, *outcome.NewInfluencePoints)
}

func TestApplyEndorsement_Scenario(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	ctx := t.Context()

	requireSuccess(t, f.endorse(ctx, f.alice.ID, enum.EndorsementTypeEndorse), 1)
	requireSuccess(t, f.endorse(ctx, f.alice.ID, enum.EndorsementTypeStrong), 3)
	requireSuccess(t, f.endorse(ctx, f.carol.ID, enum.EndorsementTypeEndorse), 4)

	assert.Equal(t, int32(4), f.points(t))
	assert.Equal(t, f.store.ActivePointSum(f.bias.ID), f.points(t))
	assert.Len(t, f.store.Endorsements(f.bias.ID), 3)
	assert.Len(t, f.store.ActiveEndorsements(f.bias.ID), 2)
	assert.Equal(t, 3, f.cache.count())
}

func TestApplyEndorsement_IdempotentRepeat(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	ctx := t.Context()

	first := f.endorse(ctx, f.alice.ID, enum.EndorsementTypeStrong)
	second := f.endorse(ctx, f.alice.ID, enum.EndorsementTypeStrong)

	requireSuccess(t, first, 3)
	requireSuccess(t, second, 3)
	assert.Len(t, f.store.ActiveEndorsements(f.bias.ID), 1)
	assert.Len(t, f.store.Endorsements(f.bias.ID), 1)
	assert.Equal(t, 1, f.cache.count(), "no-op must not invalidate")
}

func TestApplyEndorsement_TypeSwitchConservation(t *testing.T) {
	t.Parallel()

	policy := service.DefaultEndorsementPolicy()
	allTypes := enum.EndorsementTypeValues()

	for _, from := range allTypes {
		for _, to := range allTypes {
			if from == to {
				continue
			}

			t.Run(from.String()+"_to_"+to.String(), func(t *testing.T) {
				t.Parallel()

				f := newEndorsementFixture(t, nil)
				ctx := t.Context()

				// Someone else's endorsement sets a non-zero baseline
				requireSuccess(t, f.endorse(ctx, f.carol.ID, enum.EndorsementTypeExceptional), 5)
				before := f.points(t)

				p1, _ := policy.Points(from)
				p2, _ := policy.Points(to)

				require.True(t, f.endorse(ctx, f.alice.ID, from).Success)
				outcome := f.endorse(ctx, f.alice.ID, to)

				requireSuccess(t, outcome, before+p2)
				assert.Equal(t, p2-p1, f.points(t)-(before+p1))

				active := 0
				for _, e := range f.store.ActiveEndorsements(f.bias.ID) {
					if e.AuthorID == f.alice.ID {
						active++
						assert.Equal(t, to, e.EndorsementType)
					}
				}
				assert.Equal(t, 1, active)
			})
		}
	}
}

func TestApplyEndorsement_Rejections(t *testing.T) {
	t.Parallel()

	disabled, err := service.NewEndorsementPolicy(&config.Endorsement{
		DisabledTypes: []string{"exceptional"},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		policy   *service.EndorsementPolicy
		request  func(f *endorsementFixture) *types.EndorsementRequest
		wantCode enum.OutcomeCode
	}{
		{
			name: "self endorsement",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: f.bias.ID, AuthorID: f.owner.ID, Type: enum.EndorsementTypeEndorse}
			},
			wantCode: enum.OutcomeCodeForbidden,
		},
		{
			name: "unknown bias",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: uuid.New(), AuthorID: f.alice.ID, Type: enum.EndorsementTypeEndorse}
			},
			wantCode: enum.OutcomeCodeNotFound,
		},
		{
			name: "unknown author",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: f.bias.ID, AuthorID: uuid.New(), Type: enum.EndorsementTypeEndorse}
			},
			wantCode: enum.OutcomeCodeNotFound,
		},
		{
			name: "unknown type",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: f.bias.ID, AuthorID: f.alice.ID, Type: enum.EndorsementType(7)}
			},
			wantCode: enum.OutcomeCodeInvalid,
		},
		{
			name: "zero is not a type",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: f.bias.ID, AuthorID: f.alice.ID, Type: enum.EndorsementType(0)}
			},
			wantCode: enum.OutcomeCodeInvalid,
		},
		{
			name:   "disabled type",
			policy: disabled,
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				return &types.EndorsementRequest{BiasID: f.bias.ID, AuthorID: f.alice.ID, Type: enum.EndorsementTypeExceptional}
			},
			wantCode: enum.OutcomeCodeForbidden,
		},
		{
			name: "override with wrong sign",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				p := int32(-2)
				return &types.EndorsementRequest{
					BiasID: f.bias.ID, AuthorID: f.alice.ID, Type: enum.EndorsementTypeEndorse, PointsToAward: &p,
				}
			},
			wantCode: enum.OutcomeCodeInvalid,
		},
		{
			name: "override above max",
			request: func(f *endorsementFixture) *types.EndorsementRequest {
				p := int32(11)
				return &types.EndorsementRequest{
					BiasID: f.bias.ID, AuthorID: f.alice.ID, Type: enum.EndorsementTypeExceptional, PointsToAward: &p,
				}
			},
			wantCode: enum.OutcomeCodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newEndorsementFixture(t, tt.policy)
			outcome := f.svc.ApplyEndorsement(t.Context(), tt.request(f))

			assert.False(t, outcome.Success)
			assert.Equal(t, tt.wantCode, outcome.Code)
			assert.NotEmpty(t, outcome.Message)
			assert.Nil(t, outcome.NewInfluencePoints)
			assert.Equal(t, int32(0), f.points(t))
			assert.Empty(t, f.store.Endorsements(f.bias.ID))
			assert.Equal(t, 0, f.cache.count())
		})
	}
}

func TestApplyEndorsement_PointsOverride(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	p := int32(7)

	outcome := f.svc.ApplyEndorsement(t.Context(), &types.EndorsementRequest{
		BiasID:        f.bias.ID,
		AuthorID:      f.alice.ID,
		Type:          enum.EndorsementTypeExceptional,
		PointsToAward: &p,
	})

	requireSuccess(t, outcome, 7)
	active := f.store.ActiveEndorsements(f.bias.ID)
	require.Len(t, active, 1)
	assert.Equal(t, int32(7), active[0].PointsAwarded)
}

func TestApplyEndorsement_RetriesConflicts(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on third attempt", func(t *testing.T) {
		t.Parallel()

		f := newEndorsementFixture(t, nil)
		f.store.InjectCommitErrors(types.ErrConflict, types.ErrConflict)

		outcome := f.endorse(t.Context(), f.alice.ID, enum.EndorsementTypeEndorse)

		requireSuccess(t, outcome, 1)
		assert.Equal(t, 2, f.store.Rollbacks())
		assert.Equal(t, 1, f.store.Commits())
		assert.Len(t, f.store.Endorsements(f.bias.ID), 1)
	})

	t.Run("reports conflict when exhausted", func(t *testing.T) {
		t.Parallel()

		f := newEndorsementFixture(t, nil)
		f.store.InjectCommitErrors(types.ErrConflict, types.ErrConflict, types.ErrConflict)

		outcome := f.endorse(t.Context(), f.alice.ID, enum.EndorsementTypeEndorse)

		assert.False(t, outcome.Success)
		assert.Equal(t, enum.OutcomeCodeConflict, outcome.Code)
		assert.Equal(t, "transient contention, retry the request", outcome.Message)
		assert.Equal(t, 3, f.store.Rollbacks())
		assert.Equal(t, int32(0), f.points(t))
		assert.Empty(t, f.store.Endorsements(f.bias.ID))
	})

	t.Run("does not retry internal errors", func(t *testing.T) {
		t.Parallel()

		f := newEndorsementFixture(t, nil)
		f.store.InjectCommitErrors(errors.New("disk on fire"))

		outcome := f.endorse(t.Context(), f.alice.ID, enum.EndorsementTypeEndorse)

		assert.False(t, outcome.Success)
		assert.Equal(t, enum.OutcomeCodeInternal, outcome.Code)
		assert.Equal(t, "internal error", outcome.Message)
		assert.Equal(t, 1, f.store.Rollbacks())
	})
}

func TestApplyEndorsement_Canceled(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	outcome := f.endorse(ctx, f.alice.ID, enum.EndorsementTypeEndorse)

	assert.False(t, outcome.Success)
	assert.Equal(t, enum.OutcomeCodeCanceled, outcome.Code)
	assert.Equal(t, int32(0), f.points(t))
}

func TestApplyEndorsement_ConcurrentConvergence(t *testing.T) {
	t.Parallel()

	const authors = 25

	f := newEndorsementFixture(t, nil)
	endorsers := make([]*types.Profile, authors)
	for i := range endorsers {
		endorsers[i] = f.store.AddProfile(uuid.NewString())
	}

	outcomes := make([]*types.Outcome, authors)

	var wg conc.WaitGroup
	for i, author := range endorsers {
		wg.Go(func() {
			outcomes[i] = f.endorse(t.Context(), author.ID, enum.EndorsementTypeEndorse)
		})
	}
	wg.Wait()

	seen := make(map[int32]bool, authors)
	for _, outcome := range outcomes {
		require.True(t, outcome.Success, outcome.Message)
		seen[*outcome.NewInfluencePoints] = true
	}

	assert.Equal(t, int32(authors), f.points(t))
	assert.Equal(t, f.store.ActivePointSum(f.bias.ID), f.points(t))
	assert.Len(t, seen, authors, "each commit observes a distinct total")
}

func TestRetractEndorsement(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	ctx := t.Context()

	requireSuccess(t, f.endorse(ctx, f.alice.ID, enum.EndorsementTypeStrong), 3)
	requireSuccess(t, f.endorse(ctx, f.carol.ID, enum.EndorsementTypeEndorse), 4)

	outcome := f.svc.RetractEndorsement(ctx, f.bias.ID, f.alice.ID)
	requireSuccess(t, outcome, 1)
	assert.Equal(t, "endorsement retracted", outcome.Message)

	again := f.svc.RetractEndorsement(ctx, f.bias.ID, f.alice.ID)
	requireSuccess(t, again, 1)
	assert.Equal(t, "no active endorsement", again.Message)

	assert.Equal(t, f.store.ActivePointSum(f.bias.ID), f.points(t))
	assert.Len(t, f.store.Endorsements(f.bias.ID), 2, "retract closes rows, never deletes them")
	assert.Equal(t, 3, f.cache.count())

	missing := f.svc.RetractEndorsement(ctx, uuid.New(), f.alice.ID)
	assert.Equal(t, enum.OutcomeCodeNotFound, missing.Code)
}

func TestEnsureBias(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)
	ctx := t.Context()
	other := f.store.AddGroup("Busan FC", "busan-fc", uuid.Nil)

	created, err := f.svc.EnsureBias(ctx, f.alice.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), created.InfluencePoints)
	assert.Equal(t, 1, f.cache.count(), "joining a group invalidates the popover")

	again, err := f.svc.EnsureBias(ctx, f.alice.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, 1, f.cache.count(), "repeat join leaves the cache alone")

	existing, err := f.svc.EnsureBias(ctx, f.owner.ID, f.group.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bias.ID, existing.ID)
	assert.Equal(t, 1, f.cache.count())

	_, err = f.svc.EnsureBias(ctx, uuid.New(), other.ID)
	require.ErrorIs(t, err, types.ErrProfileNotFound)

	_, err = f.svc.EnsureBias(ctx, f.alice.ID, uuid.New())
	require.ErrorIs(t, err, types.ErrGroupNotFound)
}

func TestInvalidateOwners(t *testing.T) {
	t.Parallel()

	f := newEndorsementFixture(t, nil)

	f.svc.InvalidateOwners(t.Context(), f.owner.ID, f.alice.ID)
	f.svc.InvalidateOwners(t.Context())

	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()
	assert.Equal(t, []uuid.UUID{f.owner.ID, f.alice.ID}, f.cache.invalidated)
}
