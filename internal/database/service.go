package database

import (
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/setup/config"
	"go.uber.org/zap"
)

// Stores bundles the storage backends the services run on.
type Stores struct {
	Ledger  service.LedgerStore
	Content service.ContentStore
	View    service.ViewStore
}

// Service provides access to all business logic services.
type Service struct {
	endorsement *service.EndorsementService
	counter     *service.CounterService
	post        *service.PostService
	view        *service.ViewService
}

// NewService creates a new service instance with all services. cache may be nil.
func NewService(
	stores Stores, cfg *config.CommonConfig, cache service.PopoverCache, logger *zap.Logger,
) (*Service, error) {
	policy, err := service.NewEndorsementPolicy(&cfg.Endorsement)
	if err != nil {
		return nil, fmt.Errorf("invalid endorsement config: %w", err)
	}

	if !cfg.Cache.Enabled {
		cache = nil
	}

	counter := service.NewCounter(stores.Content, cfg.Votes.MaxAttempts, logger)

	return &Service{
		endorsement: service.NewEndorsement(stores.Ledger, policy, cache, logger),
		counter:     counter,
		post:        service.NewPost(stores.Content, counter, cfg.Votes.MaxAttempts, logger),
		view: service.NewView(
			stores.View, cache, time.Duration(cfg.Views.LeaderboardStale)*time.Minute, logger,
		),
	}, nil
}

// Endorsement returns the endorsement service.
func (s *Service) Endorsement() *service.EndorsementService {
	return s.endorsement
}

// Counter returns the counter service.
func (s *Service) Counter() *service.CounterService {
	return s.counter
}

// Post returns the post service.
func (s *Service) Post() *service.PostService {
	return s.post
}

// View returns the view service.
func (s *Service) View() *service.ViewService {
	return s.view
}
