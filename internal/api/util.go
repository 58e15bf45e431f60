package api

import (
	"net/http"
	"strconv"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/gin-gonic/gin"
)

// statusFor maps error kinds from the battle domain onto HTTP status
// codes. Dependency failures never reach clients as 5xx judge errors
// because the fallback judge absorbs them; the mapping is defensive.
func statusFor(err error) int {
	switch game.Kind(err) {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindStateConflict:
		return http.StatusConflict
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindResource:
		return http.StatusUnprocessableEntity
	case game.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the error in the standard envelope.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{constants.JSONKeyError: err.Error()})
}

// uintParam parses a numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// intQuery parses an optional numeric query parameter with a default.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
