package database

import (
	"github.com/biasnet/influence/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	bias        *models.BiasModel
	endorsement *models.EndorsementModel
	profile     *models.ProfileModel
	group       *models.GroupModel
	vote        *models.VoteModel
	post        *models.PostModel
	readView    *models.ReadViewModel
	view        *models.MaterializedViewModel
	reconcile   *models.ReconcileModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		bias:        models.NewBias(db, logger),
		endorsement: models.NewEndorsement(db, logger),
		profile:     models.NewProfile(db, logger),
		group:       models.NewGroup(db, logger),
		vote:        models.NewVote(db, logger),
		post:        models.NewPost(db, logger),
		readView:    models.NewReadView(db, logger),
		view:        models.NewMaterializedView(db, logger),
		reconcile:   models.NewReconcile(db, logger),
	}
}

// Bias returns the bias model repository.
func (r *Repository) Bias() *models.BiasModel {
	return r.bias
}

// Endorsement returns the endorsement model repository.
func (r *Repository) Endorsement() *models.EndorsementModel {
	return r.endorsement
}

// Profile returns the profile model repository.
func (r *Repository) Profile() *models.ProfileModel {
	return r.profile
}

// Group returns the group model repository.
func (r *Repository) Group() *models.GroupModel {
	return r.group
}

// Vote returns the vote model repository.
func (r *Repository) Vote() *models.VoteModel {
	return r.vote
}

// Post returns the post and comment model repository.
func (r *Repository) Post() *models.PostModel {
	return r.post
}

// ReadView returns the read view model repository.
func (r *Repository) ReadView() *models.ReadViewModel {
	return r.readView
}

// View returns the materialized view model repository.
func (r *Repository) View() *models.MaterializedViewModel {
	return r.view
}

// Reconcile returns the aggregate reconcile model repository.
func (r *Repository) Reconcile() *models.ReconcileModel {
	return r.reconcile
}
