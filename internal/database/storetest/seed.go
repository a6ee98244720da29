package storetest

import (
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
)

// AddProfile stores a profile with the given username.
func (s *Store) AddProfile(username string) *types.Profile {
	now := time.Now()
	p := types.Profile{
		ID:         uuid.New(),
		Username:   username,
		AvatarPath: "avatars/" + username + ".png",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.profiles[p.ID] = p
	return &p
}

// AddGroup stores a group. A nil category makes the group its own category.
func (s *Store) AddGroup(name, slug string, category uuid.UUID) *types.Group {
	g := types.Group{
		ID:              uuid.New(),
		Name:            name,
		Slug:            slug,
		FlagPath:        "flags/" + slug + ".svg",
		CategoryGroupID: category,
		IsOpen:          true,
		CreatedAt:       time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.groups[g.ID] = g
	return &g
}

// AddBias stores a bias with zero points and no endorsements.
func (s *Store) AddBias(userID, groupID uuid.UUID) *types.Bias {
	b := types.Bias{
		ID:        uuid.New(),
		UserID:    userID,
		GroupID:   groupID,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.biases[b.ID] = b
	return &b
}

// AddPost stores a post on a wall with the given creation time.
func (s *Store) AddPost(authorID uuid.UUID, owner types.OwnerRef, text string, at time.Time) *types.Post {
	p := types.Post{
		ID:          uuid.New(),
		AuthorID:    authorID,
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		TextContent: text,
		CreatedAt:   at,
		UpdatedAt:   at,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.posts[p.ID] = p
	return &p
}

// SetAnonymous flips the anonymous flag of a post.
func (s *Store) SetAnonymous(postID uuid.UUID, anonymous bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.data.posts[postID]
	p.IsAnonymous = anonymous
	s.data.posts[postID] = p
}

// Bias returns the committed bias row.
func (s *Store) Bias(biasID uuid.UUID) (types.Bias, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.biases[biasID]
	return b, ok
}

// Post returns the committed post row.
func (s *Store) Post(postID uuid.UUID) (types.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.posts[postID]
	return p, ok
}

// Comment returns the committed comment row.
func (s *Store) Comment(commentID uuid.UUID) (types.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.comments[commentID]
	return c, ok
}

// Endorsements returns every endorsement of a bias in insertion order.
func (s *Store) Endorsements(biasID uuid.UUID) []types.Endorsement {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []types.Endorsement
	for _, e := range s.data.endorsements {
		if e.BiasID == biasID {
			rows = append(rows, e)
		}
	}
	return rows
}

// ActiveEndorsements returns the endorsements of a bias that still count.
func (s *Store) ActiveEndorsements(biasID uuid.UUID) []types.Endorsement {
	var rows []types.Endorsement
	for _, e := range s.Endorsements(biasID) {
		if e.IsActive() {
			rows = append(rows, e)
		}
	}
	return rows
}

// ActivePointSum returns the sum of points awarded by active endorsements.
func (s *Store) ActivePointSum(biasID uuid.UUID) int32 {
	var sum int32
	for _, e := range s.ActiveEndorsements(biasID) {
		sum += e.PointsAwarded
	}
	return sum
}

// CountVotes counts the stored votes of a given type on a target.
func (s *Store) CountVotes(target types.TargetRef, voteType enum.VoteType) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int32
	for _, v := range s.data.votes {
		if v.Target() == target && v.VoteType == voteType {
			n++
		}
	}
	return n
}

// CountComments counts the stored comments of a post.
func (s *Store) CountComments(postID uuid.UUID) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int32
	for _, c := range s.data.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}
