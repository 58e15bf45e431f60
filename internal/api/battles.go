package api

import (
	"net/http"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetBattle(c *gin.Context) {
	id, ok := uintParam(c, "battleID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidBattleID})
		return
	}
	b, err := h.repo.GetBattleByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type battleActorRequest struct {
	CombatantID uint `json:"combatant_id"`
}

// battleActor binds the combatant_id field and enforces that the
// session user owns it.
func (h *Handler) battleActor(c *gin.Context) (uint, *game.Combatant, bool) {
	id, ok := uintParam(c, "battleID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidBattleID})
		return 0, nil, false
	}
	var req battleActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return 0, nil, false
	}
	actor, ok := h.ownedCombatant(c, req.CombatantID)
	if !ok {
		return 0, nil, false
	}
	return id, actor, true
}

func (h *Handler) StartBattle(c *gin.Context) {
	battleID, actor, ok := h.battleActor(c)
	if !ok {
		return
	}
	b, err := h.battles.Start(battleID, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type SubmitActionRequest struct {
	CombatantID uint            `json:"combatant_id"`
	Kind        game.ActionKind `json:"kind"`
	AbilityID   uint            `json:"ability_id"`
}

func (h *Handler) SubmitAction(c *gin.Context) {
	battleID, ok := uintParam(c, "battleID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidBattleID})
		return
	}
	var req SubmitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	actor, ok := h.ownedCombatant(c, req.CombatantID)
	if !ok {
		return
	}
	b, err := h.battles.SubmitAction(battleID, actor.ID, req.Kind, req.AbilityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) Surrender(c *gin.Context) {
	battleID, actor, ok := h.battleActor(c)
	if !ok {
		return
	}
	b, err := h.battles.Surrender(battleID, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ResolveOneShot settles a one-shot battle from the stored battle cries.
func (h *Handler) ResolveOneShot(c *gin.Context) {
	battleID, actor, ok := h.battleActor(c)
	if !ok {
		return
	}
	b, err := h.battles.ResolveOneShot(c.Request.Context(), battleID, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) GetReplay(c *gin.Context) {
	id, ok := uintParam(c, "battleID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidBattleID})
		return
	}
	snap, err := h.repo.GetReplay(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header(constants.CacheControlHeader, constants.CacheControlNoCache)
	c.Data(http.StatusOK, constants.ContentTypeJSON, []byte(snap.Log))
}
