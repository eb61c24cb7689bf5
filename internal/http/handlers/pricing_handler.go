// README: Pricing handlers for quotes and rate card versions.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"safari/internal/modules/pricing"
)

type PricingService interface {
	Quote(ctx context.Context, in pricing.SelectionInput) (pricing.Quote, error)
	CurrentConfig(ctx context.Context) (pricing.Snapshot, error)
	Config(ctx context.Context, id int64) (pricing.Snapshot, error)
	UpdateConfig(ctx context.Context, cfg pricing.Config) (pricing.Snapshot, error)
	History(ctx context.Context, limit int) ([]pricing.Snapshot, error)
}

type PricingHandler struct {
	pricing PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

func (h *PricingHandler) Quote(c *gin.Context) {
	var in pricing.SelectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json", "")
		return
	}
	q, err := h.pricing.Quote(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *PricingHandler) Current(c *gin.Context) {
	snap, err := h.pricing.CurrentConfig(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

func (h *PricingHandler) Version(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "bad_request", "invalid config id", "id")
		return
	}
	snap, err := h.pricing.Config(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

func (h *PricingHandler) Update(c *gin.Context) {
	var cfg pricing.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json", "")
		return
	}
	snap, err := h.pricing.UpdateConfig(c.Request.Context(), cfg)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, snap)
}

func (h *PricingHandler) History(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok || limit < 1 || limit > 200 {
		writeError(c, http.StatusBadRequest, "bad_request", "limit must be 1..200", "limit")
		return
	}
	snaps, err := h.pricing.History(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if snaps == nil {
		snaps = []pricing.Snapshot{}
	}
	writeJSON(c, http.StatusOK, gin.H{"versions": snaps})
}
