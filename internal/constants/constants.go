package constants

// Centralized constants for headers, env keys and Ollama integration.
const (
	// Environment variable keys
	EnvConfigPath          = "ARENA_CONFIG"
	EnvSessionSecret       = "SESSION_SECRET"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvOllamaAPIURL        = "OLLAMA_API_URL"
	EnvOllamaModel         = "OLLAMA_MODEL"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"

	CacheControlHeader  = "Cache-Control"
	CacheControlNoCache = "no-cache, no-store, must-revalidate"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// Ollama endpoints and defaults
	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaTagsPath       = "/api/tags"
	OllamaGeneratePath   = "/api/generate"
	OllamaDefaultModel   = "gemma3:latest"

	// Session / Cookie names
	CookieSessionName = "arena_session"

	// Google OAuth constants
	GoogleOAuthRedirect = "postmessage"
	GoogleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// Scopes for Google userinfo
	GoogleUserInfoScopes = []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"}
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteHealth             = "/health"
	RouteAbilities          = "/abilities"
	RouteCombatants         = "/combatants"
	RouteCombatantByID      = "/combatants/:combatantID"
	RouteCombatantRename    = "/combatants/:combatantID/rename"
	RouteCombatantStats     = "/combatants/:combatantID/stats"
	RouteCombatantHistory   = "/combatants/:combatantID/history"
	RouteLeaderboard        = "/leaderboard"
	RouteLeaderboardNearby  = "/leaderboard/nearby/:combatantID"
	RouteQueueJoin          = "/queue/join"
	RouteQueueLeave         = "/queue/leave"
	RouteChallenge          = "/challenge"
	RouteBattleStats        = "/battles/stats"
	RouteBattleByID         = "/battles/:battleID"
	RouteBattleStart        = "/battles/:battleID/start"
	RouteBattleAction       = "/battles/:battleID/action"
	RouteBattleSurrender    = "/battles/:battleID/surrender"
	RouteBattleOneShot      = "/battles/:battleID/oneshot"
	RouteBattleReplay       = "/battles/:battleID/replay"
	RouteAuthGoogleCallBack = "/auth/google/oauth2callback"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest   = "Invalid request"
	ErrMissingGoogleEnv = "Missing GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET in environment"

	ErrInvalidCombatantID = "Invalid combatant ID"
	ErrInvalidBattleID    = "Invalid battle ID"

	ErrNameRequired   = "name is required"
	ErrNameExceeds    = "Name exceeds 32 characters"
	ErrCryExceeds     = "Battle cry exceeds 500 characters"
	ErrNotParticipant = "Not a participant of this battle"

	ErrFailedExchangeToken    = "Failed to exchange token"
	ErrFailedGetUserInfo      = "Failed to get user info"
	ErrFailedReadUserData     = "Failed to read user data: %s"
	ErrNoEmailInGoogleProfile = "No email in Google profile"
	ErrFailedCreateSession    = "Failed to create session"

	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"
)

// Logging field names
const (
	LogFieldName = "name"
	LogFieldAddr = "addr"
)
