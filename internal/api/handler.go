package api

import (
	"github.com/jaeho-jang-dr/online-text-battle/internal/battle"
	"github.com/jaeho-jang-dr/online-text-battle/internal/matchmaking"
	"github.com/jaeho-jang-dr/online-text-battle/internal/ranking"
	"github.com/jaeho-jang-dr/online-text-battle/internal/storage"
)

// Handler holds the wired services behind the HTTP surface.
type Handler struct {
	repo    storage.Repository
	battles *battle.Service
	matches *matchmaking.Service
	ranks   *ranking.Service
}

func NewHandler(repo storage.Repository, battles *battle.Service, matches *matchmaking.Service, ranks *ranking.Service) *Handler {
	return &Handler{repo: repo, battles: battles, matches: matches, ranks: ranks}
}
