package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

// judgePromptTemplate can be overridden at startup (see
// SetJudgePromptTemplate). The tokens {{cry_a}} and {{cry_b}} are
// replaced with the two submissions.
var judgePromptTemplate string

// SetJudgePromptTemplate installs a custom judging prompt. Call during
// app initialization if the config provides one.
func SetJudgePromptTemplate(t string) {
	judgePromptTemplate = strings.TrimSpace(t)
}

const defaultJudgePrompt = `You are the arbiter of a legendary battle arena. Two warriors shout their battle declarations; you must pick the winner.

Warrior A declares: "{{cry_a}}"
Warrior B declares: "{{cry_b}}"

Score each declaration out of 100 for character, vividness, creativity, impact and tactics. Answer in JSON only:
{"winner": "a" or "b", "reason": "one short sentence", "score_a": number, "score_b": number}`

// Ollama judges battles by calling a local Ollama server. It satisfies
// Judge; callers should wrap it with WithFallback so an unreachable
// model never blocks a battle.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(baseURL, model string) *Ollama {
	if baseURL == "" {
		baseURL = constants.OllamaDefaultBaseURL
	}
	if model == "" {
		model = constants.OllamaDefaultModel
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Probe checks the Ollama tags endpoint as a liveness signal.
func (o *Ollama) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+constants.OllamaTagsPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrJudgeUnavailable, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: probe status %d", game.ErrJudgeUnavailable, resp.StatusCode)
	}
	return nil
}

func (o *Ollama) Judge(ctx context.Context, textA, textB string) (Judgment, error) {
	prompt := judgePromptTemplate
	if prompt == "" {
		prompt = defaultJudgePrompt
	}
	prompt = strings.ReplaceAll(prompt, "{{cry_a}}", textA)
	prompt = strings.ReplaceAll(prompt, "{{cry_b}}", textB)

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			// Low temperature keeps judgments consistent between calls.
			"temperature": 0.3,
			"top_p":       0.9,
		},
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+constants.OllamaGeneratePath, strings.NewReader(string(b)))
	if err != nil {
		return Judgment{}, fmt.Errorf("%w: %v", game.ErrJudgeUnavailable, err)
	}
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := o.client.Do(req)
	if err != nil {
		return Judgment{}, fmt.Errorf("%w: %v", game.ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Judgment{}, fmt.Errorf("%w: generate status %d %s", game.ErrJudgeUnavailable, resp.StatusCode, string(body))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Judgment{}, fmt.Errorf("%w: decode response: %v", game.ErrJudgeUnavailable, err)
	}

	var verdict struct {
		Winner string `json:"winner"`
		Reason string `json:"reason"`
		ScoreA int    `json:"score_a"`
		ScoreB int    `json:"score_b"`
	}
	if err := json.Unmarshal([]byte(out.Response), &verdict); err != nil {
		return Judgment{}, fmt.Errorf("%w: decode verdict: %v", game.ErrJudgeUnavailable, err)
	}

	j := Judgment{ScoreA: verdict.ScoreA, ScoreB: verdict.ScoreB, Reason: verdict.Reason}
	switch strings.ToLower(strings.TrimSpace(verdict.Winner)) {
	case "a", "player1", "warrior a":
		j.Winner = 0
	case "b", "player2", "warrior b":
		j.Winner = 1
	default:
		return Judgment{}, fmt.Errorf("%w: unrecognized winner %q", game.ErrJudgeUnavailable, verdict.Winner)
	}
	return j, nil
}
