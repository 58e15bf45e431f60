package api

import (
	"net/http"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	offset := intQuery(c, "offset", 0)
	entries, err := h.ranks.Leaderboard(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) LeaderboardNearby(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	span := intQuery(c, "span", 2)
	entries, err := h.ranks.Nearby(id, span)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ArenaStats reports aggregate battle activity across the arena.
func (h *Handler) ArenaStats(c *gin.Context) {
	stats, err := h.repo.BattleStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
