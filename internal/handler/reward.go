package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fairness/internal/abuse"
	"fairness/internal/models"
	"fairness/internal/repository"
	"fairness/internal/reward"
)

// restrictedMessage is deliberately generic: risk blocks must not reveal
// which heuristic fired.
const restrictedMessage = "action temporarily restricted"

type RewardHandler struct {
	Detector   *abuse.Detector
	Normalizer *reward.Normalizer
	Repo       repository.Repository
	Logger     *zap.Logger
}

func (h *RewardHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/claims", h.claim)
	group := r.Group("/api/v1/rewards")
	group.GET("/average", h.fairAverage)
	group.POST("/validate", h.validateAction)
	group.POST("/distribute", h.distribute)
	group.GET("/:wallet", h.list)
}

type claimRequest struct {
	Wallet string  `json:"wallet" binding:"required"`
	Metric string  `json:"metric" binding:"required"`
	Amount float64 `json:"amount"`
	Rarity string  `json:"rarity"`
}

type claimResponse struct {
	Wallet           string          `json:"wallet"`
	Metric           string          `json:"metric"`
	RawAmount        decimal.Decimal `json:"raw_amount"`
	NormalizedAmount decimal.Decimal `json:"normalized_amount"`
	Warned           bool            `json:"warned,omitempty"`
}

// @Summary Claim a reward
// @Description Gates the claim on sybil risk and rate limits, then pays the fairness-adjusted amount.
// @Tags rewards
// @Accept json
// @Param request body handler.claimRequest true "claim"
// @Success 200 {object} handler.claimResponse
// @Router /api/v1/claims [post]
func (h *RewardHandler) claim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !abuse.ValidWallet(req.Wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	if req.Amount < 0 {
		Error(c, http.StatusBadRequest, "amount must be non-negative", nil)
		return
	}

	ctx := c.Request.Context()

	// Gate first: may the wallet act at all?
	assessment := h.Detector.AssessRisk(ctx, req.Wallet, c.ClientIP())
	if assessment.Decision == abuse.DecisionBlock {
		if h.Logger != nil {
			h.Logger.Info("claim blocked",
				zap.String("wallet", req.Wallet),
				zap.Int("risk_score", assessment.RiskScore),
				zap.Strings("reasons", assessment.Reasons),
			)
		}
		Error(c, http.StatusForbidden, restrictedMessage, nil)
		return
	}
	limited := h.Detector.CheckRateLimit(ctx, req.Wallet, models.ActionGeneral)
	if !limited.Allowed {
		Error(c, http.StatusTooManyRequests, limited.Reason, map[string]any{
			"reset_at": limited.ResetAt,
		})
		return
	}

	raw := decimal.NewFromFloat(req.Amount)
	normalized, err := h.normalizedAmount(c, req, raw)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	normalized = h.Normalizer.CapMetric(normalized, reward.CapReward)

	txn := &models.RewardTransaction{
		WalletAddress:    req.Wallet,
		Metric:           req.Metric,
		RawAmount:        raw,
		NormalizedAmount: normalized,
		Reason:           "claim",
	}
	if err := h.Repo.InsertRewardTransaction(ctx, txn); err != nil {
		Error(c, http.StatusBadGateway, "reward could not be recorded", nil)
		return
	}
	// Record the claim so the next rate-limit read sees it.
	action := models.ActionGeneral
	if req.Metric == models.RewardReferral {
		action = models.ActionReferral
	}
	if err := h.Repo.InsertActivity(ctx, &models.Activity{
		WalletAddress: req.Wallet,
		ActionType:    action,
		Amount:        normalized,
	}); err != nil && h.Logger != nil {
		h.Logger.Warn("claim activity write failed", zap.Error(err))
	}

	Ok(c, claimResponse{
		Wallet:           req.Wallet,
		Metric:           req.Metric,
		RawAmount:        raw,
		NormalizedAmount: normalized,
		Warned:           assessment.Decision == abuse.DecisionWarn,
	}, nil)
}

func (h *RewardHandler) normalizedAmount(c *gin.Context, req claimRequest, raw decimal.Decimal) (decimal.Decimal, error) {
	ctx := c.Request.Context()
	switch req.Metric {
	case models.RewardReferral:
		v := h.Normalizer.ValidateUserAction(ctx, req.Wallet, models.ActionReferral, &raw)
		if !v.Allowed {
			return decimal.Zero, errValidation(v.Reason)
		}
		if v.NormalizedValue != nil {
			return *v.NormalizedValue, nil
		}
		return h.Normalizer.FairReferralReward(ctx), nil
	case models.RewardBadge:
		if req.Rarity != "" {
			return h.Normalizer.BadgeReward(req.Rarity)
		}
		return h.Normalizer.NormalizeReward(raw, req.Metric)
	case models.RewardTask:
		return h.Normalizer.NormalizeReward(raw, req.Metric)
	default:
		return decimal.Zero, errValidation("unknown reward metric: " + req.Metric)
	}
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errValidation(reason string) error { return validationError(reason) }

// @Summary Fairness-validate a user action
// @Tags rewards
// @Accept json
// @Success 200 {object} reward.Validation
// @Router /api/v1/rewards/validate [post]
func (h *RewardHandler) validateAction(c *gin.Context) {
	var req struct {
		Wallet string   `json:"wallet" binding:"required"`
		Action string   `json:"action" binding:"required"`
		Value  *float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !abuse.ValidWallet(req.Wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	var value *decimal.Decimal
	if req.Value != nil {
		d := decimal.NewFromFloat(*req.Value)
		value = &d
	}
	Ok(c, h.Normalizer.ValidateUserAction(c.Request.Context(), req.Wallet, req.Action, value), nil)
}

// @Summary Platform-wide fair average of a metric
// @Tags rewards
// @Param metric query string true "posts|trades|volume|followers|rewards"
// @Param period query string false "day|week|month" default(week)
// @Success 200 {object} map[string]float64
// @Router /api/v1/rewards/average [get]
func (h *RewardHandler) fairAverage(c *gin.Context) {
	metric := c.Query("metric")
	switch metric {
	case repository.MetricPosts, repository.MetricTrades, repository.MetricVolume,
		repository.MetricFollowers, repository.MetricRewards:
	default:
		Error(c, http.StatusBadRequest, "unknown metric", nil)
		return
	}
	period := c.DefaultQuery("period", reward.PeriodWeek)
	avg := h.Normalizer.FairAverage(c.Request.Context(), metric, period)
	Ok(c, gin.H{"metric": metric, "period": period, "average": avg}, nil)
}

// @Summary Split a pot equally at cent precision
// @Tags rewards
// @Accept json
// @Success 200 {object} reward.Distribution
// @Router /api/v1/rewards/distribute [post]
func (h *RewardHandler) distribute(c *gin.Context) {
	var req struct {
		Total      float64 `json:"total"`
		Recipients int     `json:"recipients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Total < 0 {
		Error(c, http.StatusBadRequest, "total must be non-negative", nil)
		return
	}
	Ok(c, reward.FairRewardDistribution(decimal.NewFromFloat(req.Total), req.Recipients), nil)
}

// @Summary Reward history for a wallet
// @Tags rewards
// @Param wallet path string true "wallet address"
// @Success 200 {array} models.RewardTransaction
// @Router /api/v1/rewards/{wallet} [get]
func (h *RewardHandler) list(c *gin.Context) {
	wallet := c.Param("wallet")
	if !abuse.ValidWallet(wallet) {
		Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.Repo.ListRewardTransactionsByWallet(c.Request.Context(), wallet, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, rows, nil)
}
