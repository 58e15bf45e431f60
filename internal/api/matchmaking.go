package api

import (
	"net/http"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/gin-gonic/gin"
)

type JoinQueueRequest struct {
	CombatantID uint                 `json:"combatant_id"`
	Preference  game.MatchPreference `json:"preference"`
}

func (h *Handler) JoinQueue(c *gin.Context) {
	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	actor, ok := h.ownedCombatant(c, req.CombatantID)
	if !ok {
		return
	}
	if req.Preference == "" {
		req.Preference = game.PreferRandom
	}
	res, err := h.matches.RequestMatch(actor.ID, req.Preference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type LeaveQueueRequest struct {
	CombatantID uint `json:"combatant_id"`
}

func (h *Handler) LeaveQueue(c *gin.Context) {
	var req LeaveQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	actor, ok := h.ownedCombatant(c, req.CombatantID)
	if !ok {
		return
	}
	if err := h.matches.Cancel(actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}

type ChallengeRequest struct {
	CombatantID uint            `json:"combatant_id"`
	TargetID    uint            `json:"target_id"`
	Mode        game.BattleMode `json:"mode"`
}

func (h *Handler) Challenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	actor, ok := h.ownedCombatant(c, req.CombatantID)
	if !ok {
		return
	}
	if req.Mode == "" {
		req.Mode = game.ModeTurns
	}
	b, err := h.matches.Challenge(actor.ID, req.TargetID, req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}
