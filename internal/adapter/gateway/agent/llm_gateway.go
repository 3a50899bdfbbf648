package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/domain/model/step"
)

// LLMGateway implements the capability ports against a messages-style LLM
// API. Each capability sends one prompt and parses a single JSON object
// out of the reply.
type LLMGateway struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	model      string
}

// NewLLMGateway creates an LLM-backed capability engine
func NewLLMGateway(apiKey, apiURL, model string) *LLMGateway {
	return &LLMGateway{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		model: model,
	}
}

var (
	_ output.RulesEvaluator    = (*LLMGateway)(nil)
	_ output.NarrativeRenderer = (*LLMGateway)(nil)
	_ output.DecisionResolver  = (*LLMGateway)(nil)
)

// rulesReply is the JSON shape the rules prompt demands
type rulesReply struct {
	NeedsDice  bool     `json:"needs_dice"`
	DiceKind   string   `json:"dice_kind"`
	Conditions []string `json:"conditions"`
	Candidates []int    `json:"candidates"`
	Summary    string   `json:"summary"`
}

// decisionReply is the JSON shape the decision prompt demands
type decisionReply struct {
	NextSection int      `json:"next_section"`
	Awaiting    string   `json:"awaiting"`
	Conditions  []string `json:"conditions"`
	Analysis    string   `json:"analysis"`
}

// Evaluate asks the model for the rules governing a section
func (g *LLMGateway) Evaluate(ctx context.Context, sectionNumber int, content string) (*step.RulesResult, error) {
	prompt := fmt.Sprintf(`You are the rules engine of a gamebook. Analyze section %d below.
Respond with exactly one JSON object:
{"needs_dice": bool, "dice_kind": "combat|luck|stat|d6|2d6|", "conditions": [strings], "candidates": [section numbers in priority order], "summary": "one line"}

Section content:
%s`, sectionNumber, content)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var reply rulesReply
	if err := decodeJSONObject(text, &reply); err != nil {
		return nil, fmt.Errorf("parse rules reply: %w", err)
	}

	return step.NewRulesResult(reply.NeedsDice, reply.DiceKind, reply.Conditions, reply.Candidates, reply.Summary)
}

// Render asks the model for the player-facing narrative of a section
func (g *LLMGateway) Render(ctx context.Context, sectionNumber int, content string) (string, error) {
	prompt := fmt.Sprintf(`You are the narrator of a gamebook. Rewrite section %d below as
second-person narrative for the player. Respond with the narrative text only.

Section content:
%s`, sectionNumber, content)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Resolve asks the model to resolve the player's decision
func (g *LLMGateway) Resolve(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `You are the referee of a gamebook. Resolve the player's step for section %d.
Respond with exactly one JSON object:
{"next_section": int or 0 when unresolved, "awaiting": "none|dice_roll|user_input", "conditions": [strings], "analysis": "one line"}
If the rules demand a dice roll and no outcome is given, set awaiting to "dice_roll" and next_section to 0.

Rules summary: %s
Candidates (priority order): %v
Needs dice: %t`, req.SectionNumber, req.Rules.Summary(), req.Rules.NextSectionCandidates(), req.Rules.NeedsDice())

	if choice := req.Input.Choice(); choice != "" {
		fmt.Fprintf(&b, "\nPlayer choice: %q", choice)
	}
	if req.Dice != nil {
		fmt.Fprintf(&b, "\nDice outcome: %d (draws %v)", req.Dice.Value(), req.Dice.Draws())
	}

	text, err := g.complete(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var reply decisionReply
	if err := decodeJSONObject(text, &reply); err != nil {
		return nil, fmt.Errorf("parse decision reply: %w", err)
	}

	awaiting := step.AwaitingAction(reply.Awaiting)
	if reply.Awaiting == "" {
		awaiting = step.AwaitingNone
	}
	return step.NewDecisionResult(reply.NextSection, reply.NextSection > 0, awaiting, reply.Conditions, reply.Analysis)
}

// complete sends one prompt and returns the model's text reply
func (g *LLMGateway) complete(ctx context.Context, prompt string) (string, error) {
	apiReq := apiRequest{
		Model:     g.model,
		MaxTokens: 1024,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer httpResp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if apiResp.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s - %s",
				httpResp.StatusCode, apiResp.Error.Type, apiResp.Error.Message)
		}
		return "", fmt.Errorf("API error: status %d", httpResp.StatusCode)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty API response")
	}
	return apiResp.Content[0].Text, nil
}

// decodeJSONObject extracts the first JSON object from the model's reply.
// Models occasionally wrap the object in prose or code fences.
func decodeJSONObject(text string, v interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in reply")
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

// LLM API request/response types
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
	Error   apiError          `json:"error,omitempty"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
