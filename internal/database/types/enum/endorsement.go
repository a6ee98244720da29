package enum

// EndorsementType represents the strength of an endorsement given to a bias.
// The numeric values are persisted in endorsements.endorsement_type.
//
//go:generate go tool enumer -type=EndorsementType -trimprefix=EndorsementType -transform=snake
type EndorsementType int16

const (
	// EndorsementTypeDisapprove removes influence from the bias.
	EndorsementTypeDisapprove EndorsementType = -1
	// EndorsementTypeEndorse is a regular endorsement.
	EndorsementTypeEndorse EndorsementType = 1
	// EndorsementTypeStrong is a strong endorsement.
	EndorsementTypeStrong EndorsementType = 2
	// EndorsementTypeExceptional is the highest endorsement a user can give.
	EndorsementTypeExceptional EndorsementType = 3
)
