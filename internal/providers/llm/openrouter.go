package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sandevgo/screenmate/internal/core"
)

type OpenRouter struct {
	baseProvider
}

func NewOpenRouter(apiKey, model string) *OpenRouter {
	return &OpenRouter{
		baseProvider: newBaseProvider("https://openrouter.ai/api", apiKey, model),
	}
}

func (o *OpenRouter) GetInsight(ctx context.Context, screenText, inputContext string) (string, error) {
	return o.complete(ctx, insightSystemPrompt, insightPrompt(screenText, inputContext))
}

func (o *OpenRouter) Summarize(ctx context.Context, contents, topics []string) (string, error) {
	return o.complete(ctx, summarySystemPrompt, summaryPrompt(contents, topics))
}

func (o *OpenRouter) complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model":      o.model,
		"max_tokens": responseMaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
		"X-Title":       core.MateName,
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %s", string(data))
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
