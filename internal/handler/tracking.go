package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/superc/price-alert/internal/middleware"
	"github.com/superc/price-alert/internal/repository"
)

// TrackingHandler serves the price tracking endpoints. All routes sit behind
// the authentication middleware and a role guard; the principal on the
// context is trusted to be present.
type TrackingHandler struct {
	Tracking *repository.TrackingRepo
}

func NewTrackingHandler(t *repository.TrackingRepo) *TrackingHandler {
	return &TrackingHandler{Tracking: t}
}

type createTrackingReq struct {
	ProductNumber string  `json:"productNumber" validate:"required"`
	MaxPrice      float64 `json:"maxPrice" validate:"required,gt=0"`
}

type trackingResp struct {
	ID            uint64  `json:"id"`
	ProductNumber string  `json:"productNumber"`
	MaxPrice      float64 `json:"maxPrice"`
}

// Create registers a tracking request for the current user.
func (h *TrackingHandler) Create(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)

	var req createTrackingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "productNumber and positive maxPrice required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Tracking.Create(ctx, p.UserID, req.ProductNumber, req.MaxPrice)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyTracking) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you are already tracking this product"})
		}
		c.Logger().Errorf("tracking: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tracking request failed"})
	}
	return c.JSON(http.StatusCreated, trackingResp{ID: id, ProductNumber: req.ProductNumber, MaxPrice: req.MaxPrice})
}

// List returns the current user's tracking requests.
func (h *TrackingHandler) List(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Tracking.ListByUser(ctx, p.UserID)
	if err != nil {
		c.Logger().Errorf("tracking: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tracking requests failed"})
	}
	out := make([]trackingResp, 0, len(items))
	for _, t := range items {
		out = append(out, trackingResp{ID: t.ID, ProductNumber: t.ProductNumber, MaxPrice: t.MaxPrice})
	}
	return c.JSON(http.StatusOK, out)
}

// Delete removes one of the current user's tracking requests.
func (h *TrackingHandler) Delete(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	switch err := h.Tracking.Delete(ctx, id, p.UserID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tracking request not found"})
	case errors.Is(err, repository.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		c.Logger().Errorf("tracking: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete tracking request failed"})
	}
}

// Dashboard joins the user's tracking requests with the latest catalog
// prices.
func (h *TrackingHandler) Dashboard(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	entries, err := h.Tracking.Dashboard(ctx, p.UserID)
	if err != nil {
		c.Logger().Errorf("tracking: dashboard failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard failed"})
	}
	type entry struct {
		RequestID     uint64  `json:"requestId"`
		ProductNumber string  `json:"productNumber"`
		ProductName   string  `json:"productName"`
		ImageURL      string  `json:"imageUrl"`
		CurrentPrice  float64 `json:"currentPrice"`
		MaxPrice      float64 `json:"maxPrice"`
	}
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, entry{
			RequestID: e.RequestID, ProductNumber: e.ProductNumber, ProductName: e.ProductName,
			ImageURL: e.ImageURL, CurrentPrice: e.CurrentPrice, MaxPrice: e.MaxPrice,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListAll returns every tracking request in the system. ADMIN only.
func (h *TrackingHandler) ListAll(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Tracking.ListAll(ctx)
	if err != nil {
		c.Logger().Errorf("tracking: admin list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tracking requests failed"})
	}
	type adminEntry struct {
		ID            uint64  `json:"id"`
		UserID        uint64  `json:"userId"`
		ProductNumber string  `json:"productNumber"`
		MaxPrice      float64 `json:"maxPrice"`
	}
	out := make([]adminEntry, 0, len(items))
	for _, t := range items {
		out = append(out, adminEntry{ID: t.ID, UserID: t.UserID, ProductNumber: t.ProductNumber, MaxPrice: t.MaxPrice})
	}
	return c.JSON(http.StatusOK, out)
}
