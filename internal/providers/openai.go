package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	openaiDefaultBase = "https://api.openai.com/v1"
	requestTimeout    = 120 * time.Second
)

// OpenAIProvider speaks the OpenAI-compatible chat-completions API.
// It serves any endpoint implementing that dialect (OpenAI, OpenRouter,
// local gateways); the provider name distinguishes configured instances.
type OpenAIProvider struct {
	name    string
	apiKey  string
	apiBase string
	client  *http.Client
	limiter *rate.Limiter // nil = no client-side pacing
}

func NewOpenAIProvider(name, apiKey, apiBase string) *OpenAIProvider {
	if apiBase == "" {
		apiBase = openaiDefaultBase
	}
	return &OpenAIProvider{
		name:    name,
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// SetRateLimit enables client-side request pacing (requests per minute).
func (p *OpenAIProvider) SetRateLimit(perMinute int) {
	if perMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

// --- wire types ---

type chatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []wireMessage    `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Stream sends one chat request and returns a forward-only part channel.
//
// Tool calls and SSE streaming don't mix reliably across OpenAI-compatible
// backends (argument deltas are fragmented differently per vendor), so
// requests that declare tools go through the non-streaming endpoint and
// the response is synthesized into parts for the caller.
func (p *OpenAIProvider) Stream(ctx context.Context, req ChatRequest) (<-chan StreamPart, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if len(req.Tools) > 0 {
		return p.streamViaChat(ctx, req)
	}
	return p.streamSSE(ctx, req)
}

// streamViaChat performs a non-streaming completion and replays it as parts.
func (p *OpenAIProvider) streamViaChat(ctx context.Context, req ChatRequest) (<-chan StreamPart, error) {
	resp, err := p.chat(ctx, req)
	if err != nil {
		return nil, err
	}

	parts := make(chan StreamPart, 4)
	go func() {
		defer close(parts)
		if resp.Content != "" {
			parts <- StreamPart{Text: resp.Content}
		}
		for i := range resp.ToolCalls {
			parts <- StreamPart{ToolCall: &resp.ToolCalls[i]}
		}
		parts <- StreamPart{Done: true}
	}()
	return parts, nil
}

type chatResult struct {
	Content   string
	ToolCalls []ToolCall
}

func (p *OpenAIProvider) chat(ctx context.Context, req ChatRequest) (*chatResult, error) {
	httpResp, err := p.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", p.name, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: http %d: %s", p.name, httpResp.StatusCode, truncateForError(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s: api error: %s", p.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty choices", p.name)
	}

	msg := parsed.Choices[0].Message
	result := &chatResult{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				slog.Warn("unparseable tool call arguments", "provider", p.name, "tool", tc.Function.Name, "error", err)
			}
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return result, nil
}

// streamSSE performs a streaming completion and forwards text deltas.
func (p *OpenAIProvider) streamSSE(ctx context.Context, req ChatRequest) (<-chan StreamPart, error) {
	httpResp, err := p.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("%s: http %d: %s", p.name, httpResp.StatusCode, truncateForError(body))
	}

	parts := make(chan StreamPart, 16)
	go func() {
		defer close(parts)
		defer httpResp.Body.Close()

		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				slog.Debug("skipping malformed SSE chunk", "provider", p.name, "error", err)
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				parts <- StreamPart{Text: delta}
			}
		}

		if err := scanner.Err(); err != nil {
			parts <- StreamPart{Err: fmt.Errorf("%s: stream read: %w", p.name, err)}
			return
		}
		parts <- StreamPart{Done: true}
	}()
	return parts, nil
}

func (p *OpenAIProvider) post(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	messages := make([]wireMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Tools:    req.Tools,
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.name, err)
	}
	return resp, nil
}

const errorBodyMaxLen = 500

func truncateForError(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > errorBodyMaxLen {
		return s[:errorBodyMaxLen] + "…"
	}
	return s
}
