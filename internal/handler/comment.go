package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seroba/gallery-gate/internal/middleware"
	"github.com/seroba/gallery-gate/internal/model"
	"github.com/seroba/gallery-gate/internal/repository"
)

// CommentHandler serves the channel's paid-unlock comments and the
// broadcaster's moderation toggle.
type CommentHandler struct {
	Resolver EntitlementResolver
	Comments *repository.CommentRepo
}

func NewCommentHandler(r EntitlementResolver, cm *repository.CommentRepo) *CommentHandler {
	return &CommentHandler{Resolver: r, Comments: cm}
}

// ----- DTOs -----

type moderateReq struct {
	Approved *bool `json:"approved"`
}

type commentResp struct {
	ID        uint64    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /v1/comments.  Comments sit behind the same entitlement
// gate as the gallery.  The broadcaster sees hidden comments too so they
// can un-hide them; everyone else sees approved ones only.
func (h *CommentHandler) List(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if res := h.Resolver.Resolve(ctx, claims.ChannelID, claims); !res.IsEntitled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "subscribers only"})
	}
	approvedOnly := claims.Role != model.RoleBroadcaster
	comments, err := h.Comments.ListByChannel(ctx, claims.ChannelID, approvedOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load comments"})
	}
	items := make([]commentResp, 0, len(comments))
	for _, cm := range comments {
		items = append(items, commentResp{ID: cm.ID, AuthorID: cm.AuthorID, Body: cm.Body, Approved: cm.Approved, CreatedAt: cm.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Moderate handles PATCH /v1/comments/:id.  Routing restricts it to the
// broadcaster role.  The body may carry {"approved": false} to hide a
// comment; omitting the field approves it.
func (h *CommentHandler) Moderate(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Comments.SetApproved(ctx, claims.ChannelID, id, approved); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update comment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "approved": approved})
}
