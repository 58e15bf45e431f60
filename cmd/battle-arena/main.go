package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/api"
	"github.com/jaeho-jang-dr/online-text-battle/internal/battle"
	"github.com/jaeho-jang-dr/online-text-battle/internal/config"
	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/events"
	"github.com/jaeho-jang-dr/online-text-battle/internal/judge"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
	"github.com/jaeho-jang-dr/online-text-battle/internal/matchmaking"
	"github.com/jaeho-jang-dr/online-text-battle/internal/ranking"
	"github.com/jaeho-jang-dr/online-text-battle/internal/rating"
	"github.com/jaeho-jang-dr/online-text-battle/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// Path may be provided via ARENA_CONFIG or defaults to
	// ./arena_config.json in the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./arena_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid arena configuration", err, logging.Fields{"config_path": configPath, "hint": "create an arena_config.json with an 'ability_list' array (name,mana_cost,damage,heal_amount,cooldown,kind) and optional keys: bot_list, server.address, elo_k, turn_timeout_seconds, practice_while_queued, ollama{url,model}, judge_prompt"})
	}

	if cfg.JudgePromptTemplate != "" {
		judge.SetJudgePromptTemplate(cfg.JudgePromptTemplate)
	}
	if os.Getenv(constants.EnvGoogleClientID) == "" || os.Getenv(constants.EnvGoogleClientSecret) == "" {
		logging.Warn("Google OAuth env vars not set; login is disabled", nil, nil)
	}

	// Allow the DB path to be configured via ARENA_DB. Default to a
	// data/ directory for local development.
	dbPath := os.Getenv("ARENA_DB")
	if dbPath == "" {
		dbPath = "./data/arena.db"
	}
	db, err := storage.OpenAndMigrate(dbPath, cfg)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	seed := time.Now().UnixNano()
	oracle := judge.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	judgeChain := judge.WithFallback(oracle, judge.NewHeuristic(rand.New(rand.NewSource(seed))))

	notifier := events.NewLogNotifier()
	turnTimeout := time.Duration(cfg.TurnTimeoutSeconds) * time.Second
	battles := battle.NewService(repo, rating.NewCalculator(cfg.EloK), judgeChain, notifier, turnTimeout, rand.New(rand.NewSource(seed+1)))
	matches := matchmaking.NewService(repo, battles, notifier, cfg.PracticeWhileQueued, rand.New(rand.NewSource(seed+2)))
	ranks := ranking.NewService(repo)
	handler := api.NewHandler(repo, battles, matches, ranks)
	authHandler := api.NewAuthHandler()

	// Background scanner: auto-play battles whose action deadline has
	// passed so an absent player cannot freeze an opponent.
	if turnTimeout > 0 {
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				battles.ScanTimeouts(time.Now())
			}
		}()
	}

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteHealth, api.Health)
		apiRoutes.GET("/version", api.Version)
		apiRoutes.GET(constants.RouteAbilities, handler.ListAbilities)
		apiRoutes.GET(constants.RouteLeaderboard, handler.Leaderboard)
		apiRoutes.GET(constants.RouteLeaderboardNearby, handler.LeaderboardNearby)
		apiRoutes.GET(constants.RouteCombatantStats, handler.CombatantStats)
		apiRoutes.GET(constants.RouteCombatantHistory, handler.CombatantHistory)
		apiRoutes.GET(constants.RouteBattleStats, handler.ArenaStats)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		protected.POST(constants.RouteCombatants, handler.CreateCombatant)
		protected.GET(constants.RouteCombatants, handler.ListMyCombatants)
		protected.GET(constants.RouteCombatantByID, handler.GetCombatant)
		protected.POST(constants.RouteCombatantRename, handler.RenameCombatant)
		protected.DELETE(constants.RouteCombatantByID, handler.DeleteCombatant)

		protected.POST(constants.RouteQueueJoin, handler.JoinQueue)
		protected.POST(constants.RouteQueueLeave, handler.LeaveQueue)
		protected.POST(constants.RouteChallenge, handler.Challenge)

		protected.GET(constants.RouteBattleByID, handler.GetBattle)
		protected.POST(constants.RouteBattleStart, handler.StartBattle)
		protected.POST(constants.RouteBattleAction, handler.SubmitAction)
		protected.POST(constants.RouteBattleSurrender, handler.Surrender)
		protected.POST(constants.RouteBattleOneShot, handler.ResolveOneShot)
		protected.GET(constants.RouteBattleReplay, handler.GetReplay)
	}

	router.POST(constants.RouteAuthGoogleCallBack, authHandler.GoogleOAuthCallback)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
