package service

import (
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/biasnet/influence/internal/setup/config"
)

const (
	defaultMaxPoints   int32 = 10
	defaultMaxAttempts       = 3
)

// defaultPoints is the points table used for types missing from config.
var defaultPoints = map[enum.EndorsementType]int32{ //nolint:gochecknoglobals // -
	enum.EndorsementTypeDisapprove:  -1,
	enum.EndorsementTypeEndorse:     1,
	enum.EndorsementTypeStrong:      3,
	enum.EndorsementTypeExceptional: 5,
}

// EndorsementPolicy decides how many points an endorsement is worth.
type EndorsementPolicy struct {
	points      map[enum.EndorsementType]int32
	disabled    map[enum.EndorsementType]struct{}
	maxPoints   int32
	maxAttempts int
}

// DefaultEndorsementPolicy returns the policy used when nothing is configured.
func DefaultEndorsementPolicy() *EndorsementPolicy {
	points := make(map[enum.EndorsementType]int32, len(defaultPoints))
	for t, p := range defaultPoints {
		points[t] = p
	}

	return &EndorsementPolicy{
		points:      points,
		disabled:    make(map[enum.EndorsementType]struct{}),
		maxPoints:   defaultMaxPoints,
		maxAttempts: defaultMaxAttempts,
	}
}

// NewEndorsementPolicy builds a policy from config. Unknown type names and
// points whose sign disagrees with the default are rejected.
func NewEndorsementPolicy(cfg *config.Endorsement) (*EndorsementPolicy, error) {
	policy := DefaultEndorsementPolicy()
	if cfg == nil {
		return policy, nil
	}

	if cfg.MaxPoints > 0 {
		policy.maxPoints = cfg.MaxPoints
	}
	if cfg.MaxAttempts > 0 {
		policy.maxAttempts = cfg.MaxAttempts
	}

	for name, points := range cfg.Points {
		t, err := enum.EndorsementTypeString(name)
		if err != nil {
			return nil, fmt.Errorf("endorsement.points: %w", err)
		}
		if points == 0 || (points > 0) != (defaultPoints[t] > 0) {
			return nil, fmt.Errorf("endorsement.points.%s: %d has the wrong sign", name, points)
		}
		if abs32(points) > policy.maxPoints {
			return nil, fmt.Errorf("endorsement.points.%s: %d exceeds max_points %d", name, points, policy.maxPoints)
		}
		policy.points[t] = points
	}

	for _, name := range cfg.DisabledTypes {
		t, err := enum.EndorsementTypeString(name)
		if err != nil {
			return nil, fmt.Errorf("endorsement.disabled_types: %w", err)
		}
		policy.disabled[t] = struct{}{}
	}

	return policy, nil
}

// Resolve validates an endorsement type and optional override and returns the
// points to award.
func (p *EndorsementPolicy) Resolve(t enum.EndorsementType, override *int32) (int32, error) {
	points, ok := p.points[t]
	if !ok || !t.IsAEndorsementType() {
		return 0, fmt.Errorf("%w: %d", types.ErrInvalidEndorsementType, t)
	}

	if _, disabled := p.disabled[t]; disabled {
		return 0, fmt.Errorf("%w: %s", types.ErrEndorsementTypeDisabled, t)
	}

	if override == nil {
		return points, nil
	}

	o := *override
	if o == 0 || (o > 0) != (points > 0) || abs32(o) > p.maxPoints {
		return 0, fmt.Errorf("%w: %d for %s", types.ErrInvalidPoints, o, t)
	}

	return o, nil
}

// Points returns the configured points for t.
func (p *EndorsementPolicy) Points(t enum.EndorsementType) (int32, bool) {
	points, ok := p.points[t]
	return points, ok
}

// MaxAttempts is how many times a contended transaction is tried.
func (p *EndorsementPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
