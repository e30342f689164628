package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seroba/gallery-gate/internal/middleware"
	"github.com/seroba/gallery-gate/internal/model"
	"github.com/seroba/gallery-gate/internal/repository"
)

// GalleryHandler serves the protected photo gallery and the broadcaster's
// catalog operations.
type GalleryHandler struct {
	Resolver EntitlementResolver
	Photos   *repository.PhotoRepo
}

func NewGalleryHandler(r EntitlementResolver, p *repository.PhotoRepo) *GalleryHandler {
	return &GalleryHandler{Resolver: r, Photos: p}
}

// ----- DTOs -----

type createPhotoReq struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type photoResp struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	TipTotal  int64     `json:"tip_total"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /v1/gallery.  This is the protected resource: the whole
// gallery is denied, not partially served, when the viewer is not entitled.
func (h *GalleryHandler) List(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if res := h.Resolver.Resolve(ctx, claims.ChannelID, claims); !res.IsEntitled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "subscribers only"})
	}
	photos, err := h.Photos.ListByChannel(ctx, claims.ChannelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load gallery"})
	}
	items := make([]photoResp, 0, len(photos))
	for _, p := range photos {
		items = append(items, photoResp{ID: p.ID, Title: p.Title, URL: p.URL, TipTotal: p.TipTotal, CreatedAt: p.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/photos.  Routing restricts it to the broadcaster
// role; the channel is always taken from the verified claims so a
// broadcaster cannot write into someone else's catalog.
func (h *GalleryHandler) Create(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req createPhotoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.Title == "" || req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/url required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	photo := &model.Photo{ChannelID: claims.ChannelID, Title: req.Title, URL: req.URL}
	if err := h.Photos.Create(ctx, photo); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create photo"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": photo.ID})
}

// Delete handles DELETE /v1/photos/:id.  The ledger keeps its rows; only
// the catalog entry goes away.
func (h *GalleryHandler) Delete(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid photo id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Photos.Delete(ctx, claims.ChannelID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "photo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete photo"})
	}
	return c.NoContent(http.StatusNoContent)
}
