package api

import (
	"net/http"
	"strings"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/gin-gonic/gin"
)

// Starting stats for freshly created combatants.
const (
	startingHealth  = 100
	startingMana    = 50
	startingAttack  = 10
	startingDefense = 5
	startingSpeed   = 5
	startingRating  = 1200
)

const (
	maxNameLength = 32
	maxCryLength  = 500
)

type CreateCombatantRequest struct {
	Name      string   `json:"name"`
	BattleCry string   `json:"battle_cry"`
	Abilities []string `json:"abilities"`
}

func (h *Handler) CreateCombatant(c *gin.Context) {
	var req CreateCombatantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNameRequired})
		return
	}
	if len(req.Name) > maxNameLength {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNameExceeds})
		return
	}
	if len(req.BattleCry) > maxCryLength {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrCryExceeds})
		return
	}

	combatant := &game.Combatant{
		UserEmail: sessionEmail(c),
		Name:      req.Name,
		Level:     1,
		Health:    startingHealth,
		MaxHealth: startingHealth,
		Mana:      startingMana,
		MaxMana:   startingMana,
		Attack:    startingAttack,
		Defense:   startingDefense,
		Speed:     startingSpeed,
		Rating:    startingRating,
		BattleCry: strings.TrimSpace(req.BattleCry),
	}
	if err := h.repo.CreateCombatant(combatant); err != nil {
		respondError(c, err)
		return
	}
	for _, name := range req.Abilities {
		ability, err := h.repo.GetAbilityByName(name)
		if err != nil {
			respondError(c, err)
			return
		}
		combatant.Abilities = append(combatant.Abilities, game.CombatantAbility{
			CombatantID: combatant.ID,
			AbilityID:   ability.ID,
			Ability:     *ability,
			Level:       1,
		})
	}
	if len(req.Abilities) > 0 {
		if err := h.repo.UpdateCombatant(combatant); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, combatant)
}

func (h *Handler) ListMyCombatants(c *gin.Context) {
	combatants, err := h.repo.GetCombatantsByUser(sessionEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, combatants)
}

func (h *Handler) GetCombatant(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	combatant, err := h.repo.GetCombatantByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, combatant)
}

type RenameCombatantRequest struct {
	Name      string `json:"name"`
	BattleCry string `json:"battle_cry"`
}

// RenameCombatant updates the display name and/or the stored battle cry
// of a combatant the session user owns.
func (h *Handler) RenameCombatant(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	var req RenameCombatantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.BattleCry = strings.TrimSpace(req.BattleCry)
	if req.Name == "" && req.BattleCry == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if len(req.Name) > maxNameLength {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNameExceeds})
		return
	}
	if len(req.BattleCry) > maxCryLength {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrCryExceeds})
		return
	}

	combatant, ok := h.ownedCombatant(c, id)
	if !ok {
		return
	}
	if req.Name != "" {
		combatant.Name = req.Name
	}
	if req.BattleCry != "" {
		combatant.BattleCry = req.BattleCry
	}
	if err := h.repo.UpdateCombatant(combatant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, combatant)
}

// DeleteCombatant removes a combatant the session user owns. The
// storage layer refuses while a non-terminal battle references it.
func (h *Handler) DeleteCombatant(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	if _, ok := h.ownedCombatant(c, id); !ok {
		return
	}
	if err := h.repo.DeleteCombatant(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedCombatant loads a combatant and enforces session ownership; on
// failure it writes the response and returns ok=false.
func (h *Handler) ownedCombatant(c *gin.Context, id uint) (*game.Combatant, bool) {
	combatant, err := h.repo.GetCombatantByID(id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if combatant.UserEmail == "" || combatant.UserEmail != sessionEmail(c) {
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotParticipant})
		return nil, false
	}
	return combatant, true
}

func (h *Handler) CombatantStats(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	stats, err := h.ranks.CombatantStats(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CombatantHistory(c *gin.Context) {
	id, ok := uintParam(c, "combatantID")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	limit := intQuery(c, "limit", 20)
	battles, err := h.repo.ListFinishedBattles(id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, battles)
}

func (h *Handler) ListAbilities(c *gin.Context) {
	abilities, err := h.repo.GetAbilities()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, abilities)
}
