package server

import (
	"net/http"
	"strconv"

	apperrors "github.com/Asvarisch/Jackpot/errors"
	"github.com/Asvarisch/Jackpot/events/kafka"
	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// JackpotAPIHandler exposes the bet-ingestion, evaluation and read-model
// endpoints on top of ContributionService/EvaluationService.
type JackpotAPIHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewJackpotAPIHandler creates the REST handler for the jackpot domain.
func NewJackpotAPIHandler(app *App) *JackpotAPIHandler {
	return &JackpotAPIHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "jackpot_api").Logger(),
	}
}

type submitBetRequest struct {
	BetID     int64           `json:"bet_id" binding:"required"`
	UserID    int64           `json:"user_id" binding:"required"`
	JackpotID int64           `json:"jackpot_id" binding:"required"`
	BetAmount decimal.Decimal `json:"bet_amount" binding:"required"`
}

// SubmitBet handles POST /api/bets: it publishes the bet onto the message
// bus, keyed by jackpotId for per-jackpot FIFO delivery, and accepts
// immediately. Acceptance does not imply persistence — the Contribution
// Service credits the jackpot asynchronously as the bus delivers the event.
func (h *JackpotAPIHandler) SubmitBet(c *gin.Context) {
	var req submitBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMessage(c, http.StatusBadRequest, "invalid-input: "+err.Error())
		return
	}

	if h.app.producer == nil {
		ErrorWithMessage(c, http.StatusServiceUnavailable, "unavailable: bet ingestion bus is not configured")
		return
	}

	event := kafka.BetEvent{
		BetID:     req.BetID,
		UserID:    req.UserID,
		JackpotID: req.JackpotID,
		BetAmount: req.BetAmount,
	}
	key := strconv.FormatInt(req.JackpotID, 10)
	if err := h.app.producer.SendMessage(h.app.betsTopic, key, event); err != nil {
		InternalError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// Evaluate handles GET /api/evaluations/{betId}.
func (h *JackpotAPIHandler) Evaluate(c *gin.Context) {
	betID, err := strconv.ParseInt(c.Param("betId"), 10, 64)
	if err != nil {
		ErrorWithMessage(c, http.StatusBadRequest, "invalid-input: betId must be an integer")
		return
	}

	response, err := h.app.evaluations.EvaluateAndReward(c.Request.Context(), betID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	OK(c, response)
}

// GetJackpot handles GET /api/jackpots/{jackpotId}.
func (h *JackpotAPIHandler) GetJackpot(c *gin.Context) {
	jackpotID, err := strconv.ParseInt(c.Param("jackpotId"), 10, 64)
	if err != nil {
		ErrorWithMessage(c, http.StatusBadRequest, "invalid-input: jackpotId must be an integer")
		return
	}

	if snap, hit := h.app.cache.Get(c.Request.Context(), jackpotID); hit {
		OK(c, snap)
		return
	}

	jp, err := h.app.jackpots.FindByIDWithConfig(c.Request.Context(), jackpotID)
	if err != nil {
		InternalError(c, err)
		return
	}
	if jp == nil {
		HandleAppError(c, apperrors.New(apperrors.ErrJackpotNotFound, "not-found: jackpot does not exist"))
		return
	}

	snap := jackpot.Snapshot{
		JackpotID:     jp.JackpotID,
		Name:          jp.Name,
		CurrentAmount: jp.CurrentAmount,
		InitialAmount: jp.InitialAmount,
		Cycle:         jp.Cycle,
	}
	h.app.cache.Set(c.Request.Context(), snap)

	OK(c, snap)
}
