package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fairness/internal/abuse"
	"fairness/internal/models"
)

type AbuseHandler struct {
	Detector *abuse.Detector
}

func (h *AbuseHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/abuse")
	group.GET("/:wallet/risk", h.risk)
	group.GET("/:wallet/ratelimit", h.rateLimit)
}

// @Summary Point-in-time sybil risk assessment
// @Tags abuse
// @Param wallet path string true "wallet address"
// @Param ip query string false "network origin to test against"
// @Success 200 {object} abuse.Assessment
// @Router /api/v1/abuse/{wallet}/risk [get]
func (h *AbuseHandler) risk(c *gin.Context) {
	wallet := c.Param("wallet")
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet address required", nil)
		return
	}
	out := h.Detector.AssessRisk(c.Request.Context(), wallet, c.Query("ip"))
	Ok(c, out, nil)
}

// @Summary Rate-limit state for a wallet and action type
// @Tags abuse
// @Param wallet path string true "wallet address"
// @Param action query string false "action type" default(general)
// @Success 200 {object} abuse.RateLimitResult
// @Router /api/v1/abuse/{wallet}/ratelimit [get]
func (h *AbuseHandler) rateLimit(c *gin.Context) {
	wallet := c.Param("wallet")
	if !abuse.ValidWallet(wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	action := c.DefaultQuery("action", models.ActionGeneral)
	switch action {
	case models.ActionPost, models.ActionComment, models.ActionLike,
		models.ActionTrade, models.ActionReferral, models.ActionGeneral:
	default:
		Error(c, http.StatusBadRequest, "unknown action type", nil)
		return
	}
	Ok(c, h.Detector.CheckRateLimit(c.Request.Context(), wallet, action), nil)
}
