package handler

import (
	"net/http"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// PostHandler handles post and comment REST endpoints.
type PostHandler struct {
	svc    *database.Service
	logger *zap.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(svc *database.Service, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		svc:    svc,
		logger: logger.Named("post_handler"),
	}
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.CreatePostRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, "Invalid post", err)
	}

	ownerType, err := enum.OwnerTypeString(body.OwnerType)
	if err != nil {
		return writeError(w, h.logger, "Invalid post owner", types.ErrInvalidOwner)
	}

	post, err := h.svc.Post().CreatePost(req.Context(), &types.CreatePostRequest{
		AuthorID:    body.AuthorID,
		OwnerType:   ownerType,
		OwnerID:     body.OwnerID,
		TextContent: body.TextContent,
		ImagePath:   body.ImagePath,
		VideoURL:    body.VideoURL,
		IsAnonymous: body.IsAnonymous,
	})
	if err != nil {
		return writeError(w, h.logger, "Failed to create post", err)
	}

	return writeJSON(w, http.StatusCreated, post)
}

// GetPost handles GET /posts/:id.
func (h *PostHandler) GetPost(w http.ResponseWriter, req bunrouter.Request) error {
	postID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid post id", err)
	}

	post, err := h.svc.View().GetPost(req.Context(), postID)
	if err != nil {
		return writeError(w, h.logger, "Failed to get post", err)
	}

	return writeJSON(w, http.StatusOK, post)
}

// GetThread handles GET /posts/:id/thread.
func (h *PostHandler) GetThread(w http.ResponseWriter, req bunrouter.Request) error {
	postID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid post id", err)
	}

	thread, err := h.svc.View().GetPostThread(req.Context(), postID)
	if err != nil {
		return writeError(w, h.logger, "Failed to get thread", err)
	}

	return writeJSON(w, http.StatusOK, thread)
}

// ListPosts handles GET /owners/:type/:id/posts.
func (h *PostHandler) ListPosts(w http.ResponseWriter, req bunrouter.Request) error {
	ownerType, err := enum.OwnerTypeString(req.Param("type"))
	if err != nil {
		return writeError(w, h.logger, "Invalid owner type", types.ErrInvalidOwner)
	}

	ownerID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid owner id", err)
	}

	cursor, err := types.DecodePostCursor(req.URL.Query().Get("cursor"))
	if err != nil {
		return writeError(w, h.logger, "Invalid cursor", err)
	}

	limit, err := queryLimit(req)
	if err != nil {
		return writeError(w, h.logger, "Invalid limit", err)
	}

	page, err := h.svc.View().ListPosts(req.Context(), types.OwnerRef{Type: ownerType, ID: ownerID}, cursor, limit)
	if err != nil {
		return writeError(w, h.logger, "Failed to list posts", err)
	}

	return writeJSON(w, http.StatusOK, page)
}

// CreateComment handles POST /posts/:id/comments.
func (h *PostHandler) CreateComment(w http.ResponseWriter, req bunrouter.Request) error {
	postID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid post id", err)
	}

	var body restTypes.CreateCommentRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, "Invalid comment", err)
	}

	comment, err := h.svc.Post().CreateComment(req.Context(), &types.CreateCommentRequest{
		PostID:      postID,
		AuthorID:    body.AuthorID,
		ReplyTo:     body.ReplyTo,
		TextContent: body.TextContent,
		ImagePath:   body.ImagePath,
		VideoURL:    body.VideoURL,
		IsAnonymous: body.IsAnonymous,
	})
	if err != nil {
		return writeError(w, h.logger, "Failed to create comment", err)
	}

	return writeJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /posts/:id/comments.
func (h *PostHandler) ListComments(w http.ResponseWriter, req bunrouter.Request) error {
	postID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid post id", err)
	}

	comments, err := h.svc.View().ListComments(req.Context(), postID)
	if err != nil {
		return writeError(w, h.logger, "Failed to list comments", err)
	}

	return writeJSON(w, http.StatusOK, comments)
}

// DeleteComment handles DELETE /comments/:id?author_id=.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, req bunrouter.Request) error {
	commentID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid comment id", err)
	}

	authorID, err := parseUUID(req.URL.Query().Get("author_id"), "author_id")
	if err != nil {
		return writeError(w, h.logger, "Invalid author id", err)
	}

	if err := h.svc.Post().DeleteComment(req.Context(), commentID, authorID); err != nil {
		return writeError(w, h.logger, "Failed to delete comment", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
