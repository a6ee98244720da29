package enum

// OwnerType represents where a post was published.
//
//go:generate go tool enumer -type=OwnerType -trimprefix=OwnerType -transform=snake -json -sql
type OwnerType int

const (
	// OwnerTypeGroup is a post on a group wall.
	OwnerTypeGroup OwnerType = iota + 1
	// OwnerTypeProfile is a post on a user profile.
	OwnerTypeProfile
)
