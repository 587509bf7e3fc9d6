package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fairness/internal/abuse"
	"fairness/internal/models"
	"fairness/internal/reputation"
)

type ReputationHandler struct {
	Scorer *reputation.Scorer
}

func (h *ReputationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/reputation")
	group.GET("/leaderboard", h.leaderboard)
	group.GET("/:wallet", h.get)
	group.POST("/:wallet/recompute", h.recompute)
}

type alphaScoreView struct {
	models.AlphaMetric
	Label string `json:"label"`
}

// @Summary Alpha score for a wallet
// @Tags reputation
// @Param wallet path string true "wallet address"
// @Param force query bool false "force synchronous recompute"
// @Success 200 {object} handler.alphaScoreView
// @Router /api/v1/reputation/{wallet} [get]
func (h *ReputationHandler) get(c *gin.Context) {
	wallet := c.Param("wallet")
	if !abuse.ValidWallet(wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	force := c.Query("force") == "true"
	row := h.Scorer.Get(c.Request.Context(), wallet, force)
	if row == nil {
		// Nil is "score unavailable", which is distinct from a zero score.
		Error(c, http.StatusServiceUnavailable, "score unavailable", nil)
		return
	}
	Ok(c, alphaScoreView{AlphaMetric: *row, Label: reputation.Label(row.AlphaScore)}, nil)
}

// @Summary Force a recompute of a wallet's alpha score
// @Tags reputation
// @Param wallet path string true "wallet address"
// @Success 200 {object} handler.alphaScoreView
// @Router /api/v1/reputation/{wallet}/recompute [post]
func (h *ReputationHandler) recompute(c *gin.Context) {
	wallet := c.Param("wallet")
	if !abuse.ValidWallet(wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	row := h.Scorer.Recompute(c.Request.Context(), wallet)
	if row == nil {
		Error(c, http.StatusServiceUnavailable, "score unavailable", nil)
		return
	}
	Ok(c, alphaScoreView{AlphaMetric: *row, Label: reputation.Label(row.AlphaScore)}, nil)
}

// @Summary Top wallets by alpha score
// @Tags reputation
// @Param limit query int false "max rows" default(10)
// @Success 200 {array} handler.alphaScoreView
// @Router /api/v1/reputation/leaderboard [get]
func (h *ReputationHandler) leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := h.Scorer.TopWallets(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	out := make([]alphaScoreView, 0, len(rows))
	for _, row := range rows {
		out = append(out, alphaScoreView{AlphaMetric: row, Label: reputation.Label(row.AlphaScore)})
	}
	Ok(c, out, map[string]any{"limit": limit})
}
