package enum

// VoteType represents the direction of a vote on a post or comment.
//
//go:generate go tool enumer -type=VoteType -trimprefix=VoteType -transform=snake
type VoteType int16

const (
	// VoteTypeDislike counts towards dislikes_count.
	VoteTypeDislike VoteType = -1
	// VoteTypeClear retracts an existing vote. It is never persisted.
	VoteTypeClear VoteType = 0
	// VoteTypeLike counts towards likes_count.
	VoteTypeLike VoteType = 1
)

// TargetType represents the kind of row a vote points at.
//
//go:generate go tool enumer -type=TargetType -trimprefix=TargetType -transform=snake -json -sql
type TargetType int

const (
	TargetTypePost TargetType = iota + 1
	TargetTypeComment
)
