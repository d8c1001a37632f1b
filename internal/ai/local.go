package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// localChatRequest is the OpenAI-compatible request body accepted by
// llama.cpp's server and similar local runtimes.
type localChatRequest struct {
	Model       string             `json:"model,omitempty"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float32            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (f *ProviderFactory) generateWithLocal(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	timeout := 90 * time.Second
	if d, err := time.ParseDuration(f.localConfig.Timeout); err == nil && d > 0 {
		timeout = d
	}

	var messages []localChatMessage
	if request.SystemInstruction != "" {
		messages = append(messages, localChatMessage{Role: "system", Content: request.SystemInstruction})
	}
	messages = append(messages, localChatMessage{Role: "user", Content: request.Prompt})

	body, err := json.Marshal(localChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encode local model request: %w", err)
	}

	endpoint := strings.TrimRight(f.localConfig.BaseURL, "/") + "/v1/chat/completions"
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build local model request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("local model server unreachable at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read local model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local model server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	text := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if text == "" {
		return nil, fmt.Errorf("empty response from local model server")
	}

	return &ContentResponse{
		Text:     text,
		Provider: ProviderLocal,
		Model:    model,
	}, nil
}
