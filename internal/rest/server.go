package rest

import (
	"context"
	"net/http"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/rest/handler"
	"github.com/biasnet/influence/internal/rest/middleware/clientip"
	"github.com/biasnet/influence/internal/rest/middleware/ratelimit"
	"github.com/biasnet/influence/internal/rest/middleware/requestlog"
	"github.com/biasnet/influence/internal/setup/config"
	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	endorsementHandler *handler.EndorsementHandler
	groupHandler       *handler.GroupHandler
	userHandler        *handler.UserHandler
	voteHandler        *handler.VoteHandler
	postHandler        *handler.PostHandler
	healthHandler      *handler.HealthHandler
}

// NewServer creates a new REST API server. ping backs the health check.
// Mutating routes are throttled per client IP.
func NewServer(
	svc *database.Service, ping func(context.Context) error, cfg *config.APIConfig, logger *zap.Logger,
) http.Handler {
	server := &Server{
		endorsementHandler: handler.NewEndorsementHandler(svc, logger),
		groupHandler:       handler.NewGroupHandler(svc, logger),
		userHandler:        handler.NewUserHandler(svc, logger),
		voteHandler:        handler.NewVoteHandler(svc, logger),
		postHandler:        handler.NewPostHandler(svc, logger),
		healthHandler:      handler.NewHealthHandler(ping, logger),
	}

	requestLogger := requestlog.New(logger)
	ipResolver := clientip.New(&cfg.ClientIP, logger)
	limiter := ratelimit.New(&cfg.RateLimit, logger)

	router := bunrouter.New(
		bunrouter.Use(requestLogger.AsRESTMiddleware),
		bunrouter.Use(ipResolver.AsRESTMiddleware),
	)

	router.WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/biases/:id/endorsements", server.endorsementHandler.GetHistory)
		g.GET("/groups/:id/leaderboard", server.groupHandler.GetLeaderboard)
		g.GET("/users/:id/biases", server.userHandler.GetBiases)
		g.GET("/posts/:id", server.postHandler.GetPost)
		g.GET("/posts/:id/thread", server.postHandler.GetThread)
		g.GET("/posts/:id/comments", server.postHandler.ListComments)
		g.GET("/owners/:type/:id/posts", server.postHandler.ListPosts)

		writes := g.Use(limiter.AsRESTMiddleware)
		writes.POST("/biases/:id/endorsements", server.endorsementHandler.ApplyEndorsement)
		writes.DELETE("/biases/:id/endorsements/:author_id", server.endorsementHandler.RetractEndorsement)
		writes.POST("/groups/:id/members", server.groupHandler.EnsureMember)
		writes.POST("/votes", server.voteHandler.ApplyVote)
		writes.POST("/posts", server.postHandler.CreatePost)
		writes.POST("/posts/:id/comments", server.postHandler.CreateComment)
		writes.DELETE("/comments/:id", server.postHandler.DeleteComment)
	})

	router.GET("/healthz", server.healthHandler.Check)

	return gzhttp.GzipHandler(router)
}
