package rest_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/database/storetest"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/biasnet/influence/internal/rest"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/biasnet/influence/internal/setup/config"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	*httptest.Server
	store *storetest.Store
}

func setupTest(t *testing.T, ping func(context.Context) error) *testServer {
	t.Helper()
	return setupTestWithConfig(t, ping, &config.APIConfig{})
}

func setupTestWithConfig(t *testing.T, ping func(context.Context) error, apiCfg *config.APIConfig) *testServer {
	t.Helper()

	store := storetest.New()
	svc, err := database.NewService(database.Stores{
		Ledger:  store,
		Content: store.Content(),
		View:    store,
	}, &config.CommonConfig{}, nil, zap.NewNop())
	require.NoError(t, err)

	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	srv := httptest.NewServer(rest.NewServer(svc, ping, apiCfg, zap.NewNop()))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store}
}

// do sends a JSON request and decodes the response body into out when given.
func (s *testServer) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if out != nil {
		require.NoError(t, sonic.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func TestEndorsementEndpoints(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	owner := s.store.AddProfile("owner")
	fan := s.store.AddProfile("fan")
	group := s.store.AddGroup("Seoul FC", "seoul-fc", uuid.Nil)
	bias := s.store.AddBias(owner.ID, group.ID)
	path := "/v1/biases/" + bias.ID.String() + "/endorsements"

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   enum.OutcomeCode
		wantPoints *int32
	}{
		{
			name:       "endorse by number",
			path:       path,
			body:       endorsementBody(fan.ID, 2),
			wantStatus: http.StatusOK,
			wantCode:   enum.OutcomeCodeOK,
			wantPoints: ptr(3),
		},
		{
			name:       "repeat by name is a no-op",
			path:       path,
			body:       endorsementBody(fan.ID, "strong"),
			wantStatus: http.StatusOK,
			wantCode:   enum.OutcomeCodeOK,
			wantPoints: ptr(3),
		},
		{
			name:       "self endorsement",
			path:       path,
			body:       endorsementBody(owner.ID, "endorse"),
			wantStatus: http.StatusForbidden,
			wantCode:   enum.OutcomeCodeForbidden,
		},
		{
			name:       "unknown type",
			path:       path,
			body:       endorsementBody(fan.ID, "superb"),
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
		{
			name:       "unknown type number",
			path:       path,
			body:       endorsementBody(fan.ID, 7),
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
		{
			name:       "missing type",
			path:       path,
			body:       map[string]any{"endorsing_user_id": fan.ID},
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
		{
			name:       "fractional type",
			path:       path,
			body:       endorsementBody(fan.ID, 2.5),
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
		{
			name:       "unknown bias",
			path:       "/v1/biases/" + uuid.NewString() + "/endorsements",
			body:       endorsementBody(fan.ID, "endorse"),
			wantStatus: http.StatusNotFound,
			wantCode:   enum.OutcomeCodeNotFound,
		},
		{
			name:       "malformed bias id",
			path:       "/v1/biases/nope/endorsements",
			body:       endorsementBody(fan.ID, "endorse"),
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
		{
			name:       "malformed body",
			path:       path,
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantCode:   enum.OutcomeCodeInvalid,
		},
	}

	// Subtests share one bias and run in order
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var outcome types.Outcome
			status := s.do(t, http.MethodPost, tt.path, tt.body, &outcome)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, outcome.Code)
			assert.Equal(t, tt.wantCode == enum.OutcomeCodeOK, outcome.Success)
			assert.Equal(t, tt.wantPoints, outcome.NewInfluencePoints)
			assert.NotEmpty(t, outcome.Message)
		})
	}

	var history []*types.Endorsement
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, enum.EndorsementTypeStrong, history[0].EndorsementType)

	var retracted types.Outcome
	status := s.do(t, http.MethodDelete, path+"/"+fan.ID.String(), nil, &retracted)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "endorsement retracted", retracted.Message)
	require.NotNil(t, retracted.NewInfluencePoints)
	assert.Equal(t, int32(0), *retracted.NewInfluencePoints)
}

func TestGroupEndpoints(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	owner := s.store.AddProfile("owner")
	fan := s.store.AddProfile("fan")
	group := s.store.AddGroup("Seoul FC", "seoul-fc", uuid.Nil)

	var bias types.Bias
	status := s.do(t, http.MethodPost, "/v1/groups/seoul-fc/members", restTypes.EnsureBiasRequest{UserID: owner.ID}, &bias)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, group.ID, bias.GroupID)

	var again types.Bias
	status = s.do(t, http.MethodPost, "/v1/groups/"+group.ID.String()+"/members",
		restTypes.EnsureBiasRequest{UserID: owner.ID}, &again)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, bias.ID, again.ID)

	var outcome types.Outcome
	s.do(t, http.MethodPost, "/v1/biases/"+bias.ID.String()+"/endorsements",
		endorsementBody(fan.ID, "exceptional"), &outcome)
	require.True(t, outcome.Success)

	var board restTypes.LeaderboardResponse
	status = s.do(t, http.MethodGet, "/v1/groups/seoul-fc/leaderboard?limit=5", nil, &board)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, group.ID, board.Group.ID)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, int32(5), board.Entries[0].InfluencePoints)
	assert.Equal(t, "owner", board.Entries[0].Username)

	var errResp restTypes.ErrorResponse
	status = s.do(t, http.MethodGet, "/v1/groups/busan-fc/leaderboard", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, enum.OutcomeCodeNotFound, errResp.Code)

	status = s.do(t, http.MethodGet, "/v1/groups/seoul-fc/leaderboard?limit=-1", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	status = s.do(t, http.MethodPost, "/v1/groups/seoul-fc/members", restTypes.EnsureBiasRequest{UserID: uuid.New()}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user not found", errResp.Message)
}

func TestUserBiasesEndpoint(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	football := s.store.AddGroup("Football", "football", uuid.Nil)
	seoul := s.store.AddGroup("Seoul FC", "seoul-fc", football.ID)
	music := s.store.AddGroup("Music", "music", uuid.Nil)
	user := s.store.AddProfile("user")
	s.store.AddBias(user.ID, seoul.ID)
	s.store.AddBias(user.ID, music.ID)

	var all restTypes.UserBiasesResponse
	status := s.do(t, http.MethodGet, "/v1/users/"+user.ID.String()+"/biases", nil, &all)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, all.Biases, 2)
	assert.Empty(t, all.Popover)

	var popover restTypes.UserBiasesResponse
	status = s.do(t, http.MethodGet,
		"/v1/users/"+user.ID.String()+"/biases?context_group_id="+football.ID.String(), nil, &popover)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, popover.Popover, 1)
	assert.Equal(t, "Seoul FC", popover.Popover[0].GroupName)

	var errResp restTypes.ErrorResponse
	status = s.do(t, http.MethodGet, "/v1/users/"+user.ID.String()+"/biases?context_group_id=x", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id", errResp.Message)
}

func TestPopoverRoundTrip(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	football := s.store.AddGroup("Football", "football", uuid.Nil)
	seoul := s.store.AddGroup("Seoul FC", "seoul-fc", football.ID)
	user := s.store.AddProfile("user")
	fan := s.store.AddProfile("fan")
	bias := s.store.AddBias(user.ID, seoul.ID)
	endorsements := "/v1/biases/" + bias.ID.String() + "/endorsements"

	var outcome types.Outcome
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, endorsements, endorsementBody(fan.ID, "strong"), &outcome))

	var raw struct {
		Popover []map[string]any `json:"popover"`
	}
	status := s.do(t, http.MethodGet, "/v1/users/"+user.ID.String()+"/biases?context_group_id="+
		football.ID.String()+"&current_user_id="+fan.ID.String(), nil, &raw)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, raw.Popover, 1)

	row := raw.Popover[0]
	for _, key := range []string{"bias_id", "group_name", "influence_points", "current_user_endorsement"} {
		assert.Contains(t, row, key)
	}
	assert.Equal(t, bias.ID.String(), row["bias_id"])

	// The endorsement read back from the popover is accepted as input
	status = s.do(t, http.MethodPost, endorsements, endorsementBody(fan.ID, row["current_user_endorsement"]), &outcome)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, outcome.NewInfluencePoints)
	assert.Equal(t, int32(3), *outcome.NewInfluencePoints)
}

func TestPostAndVoteEndpoints(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	author := s.store.AddProfile("author")
	reader := s.store.AddProfile("reader")
	group := s.store.AddGroup("Seoul FC", "seoul-fc", uuid.Nil)

	var post types.Post
	status := s.do(t, http.MethodPost, "/v1/posts", restTypes.CreatePostRequest{
		AuthorID: author.ID, OwnerType: "group", OwnerID: group.ID, TextContent: "kickoff",
	}, &post)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "kickoff", post.TextContent)

	var vote types.VoteOutcome
	status = s.do(t, http.MethodPost, "/v1/votes", restTypes.VoteRequest{
		UserID: reader.ID, TargetType: "post", TargetID: post.ID, VoteType: "like",
	}, &vote)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, vote.Counters)
	assert.Equal(t, int32(1), vote.Counters.LikesCount)

	status = s.do(t, http.MethodPost, "/v1/votes", restTypes.VoteRequest{
		UserID: reader.ID, TargetType: "wall", TargetID: post.ID, VoteType: "like",
	}, &vote)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, enum.OutcomeCodeInvalid, vote.Code)

	var comment types.Comment
	status = s.do(t, http.MethodPost, "/v1/posts/"+post.ID.String()+"/comments", restTypes.CreateCommentRequest{
		AuthorID: reader.ID, TextContent: "nice", IsAnonymous: true,
	}, &comment)
	require.Equal(t, http.StatusCreated, status)

	var thread types.PostThread
	status = s.do(t, http.MethodGet, "/v1/posts/"+post.ID.String()+"/thread", nil, &thread)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(1), thread.Post.CommentsCount)
	assert.Equal(t, int32(1), thread.Post.LikesCount)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, uuid.Nil, thread.Comments[0].AuthorID)

	var errResp restTypes.ErrorResponse
	status = s.do(t, http.MethodDelete, "/v1/comments/"+comment.ID.String()+"?author_id="+author.ID.String(), nil, &errResp)
	assert.Equal(t, http.StatusForbidden, status)

	status = s.do(t, http.MethodDelete, "/v1/comments/"+comment.ID.String()+"?author_id="+reader.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	var comments []*types.CommentWithAuthor
	status = s.do(t, http.MethodGet, "/v1/posts/"+post.ID.String()+"/comments", nil, &comments)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, comments)

	var got types.PostWithAuthor
	status = s.do(t, http.MethodGet, "/v1/posts/"+post.ID.String(), nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(0), got.CommentsCount)
	assert.Equal(t, "author", got.AuthorUsername)
}

func TestListPostsEndpoint(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	author := s.store.AddProfile("author")
	owner := types.OwnerRef{Type: enum.OwnerTypeProfile, ID: author.ID}
	base := time.Now().Add(-time.Hour)
	for i := range 3 {
		s.store.AddPost(author.ID, owner, "post", base.Add(time.Duration(i)*time.Minute))
	}

	path := "/v1/owners/profile/" + author.ID.String() + "/posts?limit=2"

	var first types.PostPage
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, &first))
	require.Len(t, first.Posts, 2)
	require.NotEmpty(t, first.NextCursor)

	var second types.PostPage
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path+"&cursor="+first.NextCursor, nil, &second))
	require.Len(t, second.Posts, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, second.Posts[0].CreatedAt.Before(first.Posts[1].CreatedAt))

	var errResp restTypes.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, path+"&cursor=%21%21", nil, &errResp))
	assert.Equal(t, "invalid cursor", errResp.Message)

	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodGet, "/v1/owners/planet/"+author.ID.String()+"/posts", nil, &errResp))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	healthy := setupTest(t, nil)
	var resp restTypes.HealthResponse
	assert.Equal(t, http.StatusOK, healthy.do(t, http.MethodGet, "/healthz", nil, &resp))
	assert.Equal(t, "ok", resp.Status)

	down := setupTest(t, func(context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/healthz", nil, &resp))
	assert.Equal(t, "unavailable", resp.Status)
}

func TestResponsesAreCompressed(t *testing.T) {
	t.Parallel()

	s := setupTest(t, nil)
	user := s.store.AddProfile("user")
	group := s.store.AddGroup("Seoul FC", "seoul-fc", uuid.Nil)
	for range 40 {
		s.store.AddBias(user.ID, group.ID)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet,
		s.URL+"/v1/users/"+user.ID.String()+"/biases", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// Setting Accept-Encoding disables transparent decompression
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	t.Parallel()

	s := setupTestWithConfig(t, nil, &config.APIConfig{
		RateLimit: config.RateLimit{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 2},
	})
	user := s.store.AddProfile("user")
	body := restTypes.VoteRequest{UserID: user.ID, TargetType: "post", TargetID: uuid.New(), VoteType: "like"}

	var errResp restTypes.ErrorResponse
	for range 2 {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/v1/votes", body, &errResp))
	}

	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/v1/votes", body, &errResp))
	assert.Equal(t, "rate limit exceeded", errResp.Message)

	// Reads are not throttled
	for range 3 {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/users/"+user.ID.String()+"/biases", nil, nil))
	}
}

// endorsementBody builds an endorsement request with the type given as a
// number or a name.
func endorsementBody(userID uuid.UUID, endorsementType any) map[string]any {
	return map[string]any{
		"endorsing_user_id": userID.String(),
		"endorsement_type":  endorsementType,
	}
}

func ptr(v int32) *int32 { return &v }
