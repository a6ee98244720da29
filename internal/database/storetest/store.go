// Package storetest provides an in-memory implementation of the service store
// interfaces for tests. Transactions run one at a time and every change made
// by a failed transaction is rolled back.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
)

// ErrCheckViolation mirrors a failed CHECK constraint such as a negative counter.
var ErrCheckViolation = errors.New("check constraint violated")

var (
	_ service.LedgerStore  = (*Store)(nil)
	_ service.ContentStore = contentStore{}
	_ service.ViewStore    = (*Store)(nil)
)

// Store is a transactional in-memory store.
type Store struct {
	txMu sync.Mutex // held for the whole of a transaction
	mu   sync.Mutex // guards the fields below

	data       *state
	commitErrs []error
	refreshErr error
	commits    int
	rollbacks  int
	refreshes  int
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// InjectCommitErrors makes the next len(errs) transactions fail at commit with
// the given errors, in order. Their changes are rolled back.
func (s *Store) InjectCommitErrors(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErrs = append(s.commitErrs, errs...)
}

// SetRefreshError makes RefreshLeaderboard fail with err. Nil clears it.
func (s *Store) SetRefreshError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

// Commits returns the number of committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns the number of rolled back transactions.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Refreshes returns how many times the leaderboard was refreshed.
func (s *Store) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// runInTx runs fn against a working copy of the data and swaps it in on success.
func (s *Store) runInTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	work := s.data.clone()
	s.mu.Unlock()

	tx := &Tx{data: work}
	err := fn(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil && len(s.commitErrs) > 0 {
		err = s.commitErrs[0]
		s.commitErrs = s.commitErrs[1:]
	}

	if err != nil {
		s.rollbacks++
		return err
	}

	s.data = work
	s.commits++
	return nil
}

// RunInTx implements service.LedgerStore.
func (s *Store) RunInTx(ctx context.Context, fn func(context.Context, service.LedgerTx) error) error {
	return s.runInTx(ctx, func(ctx context.Context, tx *Tx) error {
		return fn(ctx, tx)
	})
}

// Content returns the store viewed as a service.ContentStore.
func (s *Store) Content() service.ContentStore {
	return contentStore{s}
}

type contentStore struct {
	s *Store
}

func (c contentStore) RunInTx(ctx context.Context, fn func(context.Context, service.ContentTx) error) error {
	return c.s.runInTx(ctx, func(ctx context.Context, tx *Tx) error {
		return fn(ctx, tx)
	})
}

// read runs fn against the committed data.
func (s *Store) read(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// state is one version of every table.
type state struct {
	profiles     map[uuid.UUID]types.Profile
	groups       map[uuid.UUID]types.Group
	biases       map[uuid.UUID]types.Bias
	endorsements []types.Endorsement
	votes        map[uuid.UUID]types.Vote
	posts        map[uuid.UUID]types.Post
	comments     map[uuid.UUID]types.Comment
}

func newState() *state {
	return &state{
		profiles: make(map[uuid.UUID]types.Profile),
		groups:   make(map[uuid.UUID]types.Group),
		biases:   make(map[uuid.UUID]types.Bias),
		votes:    make(map[uuid.UUID]types.Vote),
		posts:    make(map[uuid.UUID]types.Post),
		comments: make(map[uuid.UUID]types.Comment),
	}
}

func (d *state) clone() *state {
	c := &state{
		profiles:     cloneMap(d.profiles),
		groups:       cloneMap(d.groups),
		biases:       cloneMap(d.biases),
		endorsements: make([]types.Endorsement, len(d.endorsements)),
		votes:        cloneMap(d.votes),
		posts:        cloneMap(d.posts),
		comments:     cloneMap(d.comments),
	}

	// SupersededAt is a pointer; copy it so a rolled back close does not leak
	for i, e := range d.endorsements {
		if e.SupersededAt != nil {
			at := *e.SupersededAt
			e.SupersededAt = &at
		}
		c.endorsements[i] = e
	}

	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (d *state) categoryOf(groupID uuid.UUID) (uuid.UUID, bool) {
	g, ok := d.groups[groupID]
	if !ok {
		return uuid.Nil, false
	}
	return g.CategoryID(), true
}

func (d *state) activeEndorsement(authorID, biasID uuid.UUID) (int, bool) {
	for i, e := range d.endorsements {
		if e.AuthorID == authorID && e.BiasID == biasID && e.SupersededAt == nil {
			return i, true
		}
	}
	return -1, false
}

// Tx is a transaction over a working copy of the store.
type Tx struct {
	data *state
}

var (
	_ service.LedgerTx  = (*Tx)(nil)
	_ service.ContentTx = (*Tx)(nil)
)

// LockBias implements service.LedgerTx. Transactions are already serialized.
func (t *Tx) LockBias(_ context.Context, biasID uuid.UUID) (*types.Bias, error) {
	b, ok := t.data.biases[biasID]
	if !ok {
		return nil, types.ErrBiasNotFound
	}
	return &b, nil
}

// ProfileExists implements service.LedgerTx and service.ContentTx.
func (t *Tx) ProfileExists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := t.data.profiles[userID]
	return ok, nil
}

// GroupExists implements service.LedgerTx and service.ContentTx.
func (t *Tx) GroupExists(_ context.Context, groupID uuid.UUID) (bool, error) {
	_, ok := t.data.groups[groupID]
	return ok, nil
}

// GetActiveEndorsement implements service.LedgerTx.
func (t *Tx) GetActiveEndorsement(_ context.Context, authorID, biasID uuid.UUID) (*types.Endorsement, error) {
	i, ok := t.data.activeEndorsement(authorID, biasID)
	if !ok {
		return nil, nil //nolint:nilnil // no active endorsement
	}
	e := t.data.endorsements[i]
	return &e, nil
}

// SupersedeEndorsement implements service.LedgerTx.
func (t *Tx) SupersedeEndorsement(_ context.Context, endorsementID uuid.UUID, at time.Time) error {
	for i := range t.data.endorsements {
		e := &t.data.endorsements[i]
		if e.ID != endorsementID {
			continue
		}
		if e.SupersededAt != nil {
			return types.ErrConflict
		}
		e.SupersededAt = &at
		return nil
	}
	return types.ErrConflict
}

// InsertEndorsement implements service.LedgerTx. A second active row for the
// same author and bias violates the partial unique index.
func (t *Tx) InsertEndorsement(_ context.Context, endorsement *types.Endorsement) error {
	if _, ok := t.data.biases[endorsement.BiasID]; !ok {
		return fmt.Errorf("foreign key violation: bias %s", endorsement.BiasID)
	}
	if _, ok := t.data.activeEndorsement(endorsement.AuthorID, endorsement.BiasID); ok {
		return types.ErrConflict
	}
	if endorsement.PointsAwarded == 0 {
		return ErrCheckViolation
	}
	t.data.endorsements = append(t.data.endorsements, *endorsement)
	return nil
}

// SetInfluencePoints implements service.LedgerTx.
func (t *Tx) SetInfluencePoints(_ context.Context, biasID uuid.UUID, points int32) error {
	b, ok := t.data.biases[biasID]
	if !ok {
		return types.ErrBiasNotFound
	}
	b.InfluencePoints = points
	t.data.biases[biasID] = b
	return nil
}

// InsertBiasIfMissing implements service.LedgerTx.
func (t *Tx) InsertBiasIfMissing(_ context.Context, bias *types.Bias) (*types.Bias, bool, error) {
	for _, b := range t.data.biases {
		if b.UserID == bias.UserID && b.GroupID == bias.GroupID {
			return &b, false, nil
		}
	}
	stored := *bias
	t.data.biases[stored.ID] = stored
	return &stored, true, nil
}

// GetCounters implements service.ContentTx.
func (t *Tx) GetCounters(_ context.Context, target types.TargetRef) (*types.Counters, error) {
	switch target.Type() {
	case enum.TargetTypePost:
		p, ok := t.data.posts[target.ID()]
		if !ok {
			return nil, types.ErrPostNotFound
		}
		c := p.Counters()
		return &c, nil
	case enum.TargetTypeComment:
		cm, ok := t.data.comments[target.ID()]
		if !ok {
			return nil, types.ErrCommentNotFound
		}
		c := cm.Counters()
		return &c, nil
	}
	return nil, types.ErrInvalidTarget
}

// GetVoteForUpdate implements service.ContentTx.
func (t *Tx) GetVoteForUpdate(_ context.Context, userID uuid.UUID, target types.TargetRef) (*types.Vote, error) {
	for _, v := range t.data.votes {
		if v.UserID == userID && v.Target() == target {
			return &v, nil
		}
	}
	return nil, nil //nolint:nilnil // no vote yet
}

// InsertVote implements service.ContentTx.
func (t *Tx) InsertVote(_ context.Context, vote *types.Vote) error {
	if vote.VoteType != enum.VoteTypeLike && vote.VoteType != enum.VoteTypeDislike {
		return ErrCheckViolation
	}
	for _, v := range t.data.votes {
		if v.UserID == vote.UserID && v.Target() == vote.Target() {
			return types.ErrConflict
		}
	}
	t.data.votes[vote.ID] = *vote
	return nil
}

// UpdateVoteType implements service.ContentTx.
func (t *Tx) UpdateVoteType(_ context.Context, voteID uuid.UUID, voteType enum.VoteType) error {
	if voteType != enum.VoteTypeLike && voteType != enum.VoteTypeDislike {
		return ErrCheckViolation
	}
	v, ok := t.data.votes[voteID]
	if !ok {
		return nil
	}
	v.VoteType = voteType
	t.data.votes[voteID] = v
	return nil
}

// DeleteVote implements service.ContentTx.
func (t *Tx) DeleteVote(_ context.Context, voteID uuid.UUID) error {
	delete(t.data.votes, voteID)
	return nil
}

// DeleteVotesForTarget implements service.ContentTx.
func (t *Tx) DeleteVotesForTarget(_ context.Context, target types.TargetRef) error {
	for id, v := range t.data.votes {
		if v.Target() == target {
			delete(t.data.votes, id)
		}
	}
	return nil
}

// AdjustCounters implements service.ContentTx. Negative results violate the
// counter check constraints.
func (t *Tx) AdjustCounters(
	_ context.Context, target types.TargetRef, delta types.CounterDelta,
) (*types.Counters, error) {
	switch target.Type() {
	case enum.TargetTypePost:
		p, ok := t.data.posts[target.ID()]
		if !ok {
			return nil, types.ErrPostNotFound
		}
		c := p.Counters().Apply(delta)
		if c.LikesCount < 0 || c.DislikesCount < 0 || c.CommentsCount < 0 {
			return nil, ErrCheckViolation
		}
		p.LikesCount, p.DislikesCount, p.CommentsCount = c.LikesCount, c.DislikesCount, c.CommentsCount
		t.data.posts[p.ID] = p
		return &c, nil
	case enum.TargetTypeComment:
		if delta.Comments != 0 {
			return nil, types.ErrInvalidTarget
		}
		cm, ok := t.data.comments[target.ID()]
		if !ok {
			return nil, types.ErrCommentNotFound
		}
		c := cm.Counters().Apply(delta)
		if c.LikesCount < 0 || c.DislikesCount < 0 {
			return nil, ErrCheckViolation
		}
		cm.LikesCount, cm.DislikesCount = c.LikesCount, c.DislikesCount
		t.data.comments[cm.ID] = cm
		return &c, nil
	}
	return nil, types.ErrInvalidTarget
}

// GetPost implements service.ContentTx.
func (t *Tx) GetPost(_ context.Context, postID uuid.UUID) (*types.Post, error) {
	p, ok := t.data.posts[postID]
	if !ok {
		return nil, types.ErrPostNotFound
	}
	return &p, nil
}

// InsertPost implements service.ContentTx.
func (t *Tx) InsertPost(_ context.Context, post *types.Post) error {
	t.data.posts[post.ID] = *post
	return nil
}

// GetComment implements service.ContentTx.
func (t *Tx) GetComment(_ context.Context, commentID uuid.UUID) (*types.Comment, error) {
	c, ok := t.data.comments[commentID]
	if !ok {
		return nil, types.ErrCommentNotFound
	}
	return &c, nil
}

// InsertComment implements service.ContentTx.
func (t *Tx) InsertComment(_ context.Context, comment *types.Comment) error {
	if _, ok := t.data.posts[comment.PostID]; !ok {
		return fmt.Errorf("foreign key violation: post %s", comment.PostID)
	}
	t.data.comments[comment.ID] = *comment
	return nil
}

// DeleteComment implements service.ContentTx. Replies have reply_to cleared.
func (t *Tx) DeleteComment(_ context.Context, commentID uuid.UUID) error {
	if _, ok := t.data.comments[commentID]; !ok {
		return types.ErrCommentNotFound
	}
	delete(t.data.comments, commentID)

	for id, c := range t.data.comments {
		if c.ReplyTo == commentID {
			c.ReplyTo = uuid.Nil
			t.data.comments[id] = c
		}
	}
	return nil
}

// GetGroup implements service.ViewStore.
func (s *Store) GetGroup(_ context.Context, groupID uuid.UUID) (*types.Group, error) {
	var (
		g  types.Group
		ok bool
	)
	s.read(func(d *state) { g, ok = d.groups[groupID] })
	if !ok {
		return nil, types.ErrGroupNotFound
	}
	return &g, nil
}

// GetGroupBySlug implements service.ViewStore.
func (s *Store) GetGroupBySlug(_ context.Context, slug string) (*types.Group, error) {
	var found *types.Group
	s.read(func(d *state) {
		for _, g := range d.groups {
			if g.Slug == slug {
				found = &g
				return
			}
		}
	})
	if found == nil {
		return nil, types.ErrGroupNotFound
	}
	return found, nil
}

// GetUserBiasesForCategory implements service.ViewStore.
func (s *Store) GetUserBiasesForCategory(
	_ context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
) ([]*types.UserBiasForPopover, error) {
	var (
		result []*types.UserBiasForPopover
		err    error
	)

	s.read(func(d *state) {
		category, ok := d.categoryOf(contextGroupID)
		if !ok {
			err = types.ErrGroupNotFound
			return
		}

		result = make([]*types.UserBiasForPopover, 0)
		for _, b := range d.biases {
			g := d.groups[b.GroupID]
			if b.UserID != authorID || g.CategoryID() != category {
				continue
			}

			row := &types.UserBiasForPopover{
				BiasID:          b.ID,
				GroupID:         g.ID,
				GroupName:       g.Name,
				GroupSlug:       g.Slug,
				FlagPath:        g.FlagPath,
				CountryCode:     g.CountryCode,
				InfluencePoints: b.InfluencePoints,
			}
			if i, ok := d.activeEndorsement(currentUserID, b.ID); ok {
				t := d.endorsements[i].EndorsementType
				row.CurrentUserEndorsement = &t
			}
			result = append(result, row)
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b *types.UserBiasForPopover) int {
		if a.InfluencePoints != b.InfluencePoints {
			return int(b.InfluencePoints - a.InfluencePoints)
		}
		if a.GroupName < b.GroupName {
			return -1
		}
		if a.GroupName > b.GroupName {
			return 1
		}
		return 0
	})

	return result, nil
}

// GetBiasesWithDetails implements service.ViewStore.
func (s *Store) GetBiasesWithDetails(_ context.Context, userID uuid.UUID) ([]*types.BiasWithDetails, error) {
	result := make([]*types.BiasWithDetails, 0)

	s.read(func(d *state) {
		for _, b := range d.biases {
			if b.UserID != userID {
				continue
			}
			g := d.groups[b.GroupID]
			category := d.groups[g.CategoryID()]
			if category.ID == uuid.Nil {
				category = g
			}
			result = append(result, &types.BiasWithDetails{
				BiasID:          b.ID,
				UserID:          b.UserID,
				GroupID:         b.GroupID,
				InfluencePoints: b.InfluencePoints,
				CreatedAt:       b.CreatedAt,
				GroupName:       g.Name,
				GroupSlug:       g.Slug,
				FlagPath:        g.FlagPath,
				CountryCode:     g.CountryCode,
				CategoryID:      g.CategoryID(),
				CategoryName:    category.Name,
			})
		}
	})

	slices.SortFunc(result, func(a, b *types.BiasWithDetails) int {
		if a.InfluencePoints != b.InfluencePoints {
			return int(b.InfluencePoints - a.InfluencePoints)
		}
		if a.GroupName < b.GroupName {
			return -1
		}
		if a.GroupName > b.GroupName {
			return 1
		}
		return 0
	})

	return result, nil
}

func (d *state) postWithAuthor(p types.Post) *types.PostWithAuthor {
	row := &types.PostWithAuthor{Post: p}
	if author, ok := d.profiles[p.AuthorID]; ok {
		row.AuthorUsername = author.Username
		row.AuthorAvatarPath = author.AvatarPath
	}
	return row
}

// GetPostWithAuthor implements service.ViewStore.
func (s *Store) GetPostWithAuthor(_ context.Context, postID uuid.UUID) (*types.PostWithAuthor, error) {
	var row *types.PostWithAuthor
	s.read(func(d *state) {
		if p, ok := d.posts[postID]; ok {
			row = d.postWithAuthor(p)
		}
	})
	if row == nil {
		return nil, types.ErrPostNotFound
	}
	return row, nil
}

// ListPostsWithAuthor implements service.ViewStore.
func (s *Store) ListPostsWithAuthor(
	_ context.Context, owner types.OwnerRef, cursor *types.PostCursor, limit int,
) ([]*types.PostWithAuthor, error) {
	rows := make([]*types.PostWithAuthor, 0)

	s.read(func(d *state) {
		for _, p := range d.posts {
			if p.OwnerType != owner.Type || p.OwnerID != owner.ID {
				continue
			}
			if cursor != nil && comparePostKey(p.CreatedAt, p.ID, cursor.CreatedAt, cursor.PostID) >= 0 {
				continue
			}
			rows = append(rows, d.postWithAuthor(p))
		}
	})

	slices.SortFunc(rows, func(a, b *types.PostWithAuthor) int {
		return comparePostKey(b.CreatedAt, b.ID, a.CreatedAt, a.ID)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// comparePostKey orders (created_at, id) pairs ascending.
func comparePostKey(at time.Time, id uuid.UUID, otherAt time.Time, otherID uuid.UUID) int {
	if c := at.Compare(otherAt); c != 0 {
		return c
	}
	return bytes.Compare(id[:], otherID[:])
}

// ListCommentsWithAuthor implements service.ViewStore.
func (s *Store) ListCommentsWithAuthor(_ context.Context, postID uuid.UUID) ([]*types.CommentWithAuthor, error) {
	rows := make([]*types.CommentWithAuthor, 0)

	s.read(func(d *state) {
		for _, c := range d.comments {
			if c.PostID != postID {
				continue
			}
			row := &types.CommentWithAuthor{Comment: c}
			if author, ok := d.profiles[c.AuthorID]; ok {
				row.AuthorUsername = author.Username
				row.AuthorAvatarPath = author.AvatarPath
			}
			rows = append(rows, row)
		}
	})

	slices.SortFunc(rows, func(a, b *types.CommentWithAuthor) int {
		return comparePostKey(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})

	return rows, nil
}

// GetLeaderboard implements service.ViewStore. Ranks are computed live with
// ties sharing a rank.
func (s *Store) GetLeaderboard(_ context.Context, groupID uuid.UUID, limit int) ([]*types.LeaderboardEntry, error) {
	rows := make([]*types.LeaderboardEntry, 0)

	s.read(func(d *state) {
		for _, b := range d.biases {
			if b.GroupID != groupID {
				continue
			}
			p := d.profiles[b.UserID]
			rows = append(rows, &types.LeaderboardEntry{
				GroupID:         b.GroupID,
				BiasID:          b.ID,
				UserID:          b.UserID,
				Username:        p.Username,
				AvatarPath:      p.AvatarPath,
				InfluencePoints: b.InfluencePoints,
			})
		}
	})

	slices.SortFunc(rows, func(a, b *types.LeaderboardEntry) int {
		if a.InfluencePoints != b.InfluencePoints {
			return int(b.InfluencePoints - a.InfluencePoints)
		}
		return bytes.Compare(a.UserID[:], b.UserID[:])
	})

	for i, row := range rows {
		row.Rank = int64(i + 1)
		if i > 0 && rows[i-1].InfluencePoints == row.InfluencePoints {
			row.Rank = rows[i-1].Rank
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// RefreshLeaderboard implements service.ViewStore.
func (s *Store) RefreshLeaderboard(_ context.Context, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshes++
	return nil
}

// GetEndorsementHistory implements service.ViewStore.
func (s *Store) GetEndorsementHistory(
	_ context.Context, biasID uuid.UUID, limit int,
) ([]*types.Endorsement, error) {
	rows := make([]*types.Endorsement, 0)

	s.read(func(d *state) {
		for i := len(d.endorsements) - 1; i >= 0 && len(rows) < limit; i-- {
			if e := d.endorsements[i]; e.BiasID == biasID {
				rows = append(rows, &e)
			}
		}
	})

	return rows, nil
}
