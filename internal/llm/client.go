// Package llm provides the chat-completions client used for the tool-calling
// loop and for vision description sub-calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	baseURL     string
	apiKey      string
	chatModel   string
	visionModel string
	logger      *slog.Logger
	http        *http.Client
}

// NewClient creates a completion client. chatModel drives the conversation
// loop; visionModel is used for image descriptions.
func NewClient(log *slog.Logger, baseURL, apiKey, chatModel, visionModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("llm client: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("llm client: api key is required")
	}
	if strings.TrimSpace(chatModel) == "" {
		return nil, fmt.Errorf("llm client: chat model is required")
	}
	if strings.TrimSpace(visionModel) == "" {
		visionModel = chatModel
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		chatModel:   chatModel,
		visionModel: visionModel,
		logger:      log.With(slog.String("client", "llm")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	Messages    []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Complete requests one completion over the full message history with the
// declared tool schema. The returned message may carry tool calls; callers
// check FinishReason against FinishReasonToolCalls.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool, temperature float32) (Completion, error) {
	if len(messages) == 0 {
		return Completion{}, fmt.Errorf("messages are required")
	}
	resp, err := c.call(ctx, chatRequest{
		Model:       c.chatModel,
		Temperature: temperature,
		Tools:       tools,
		Messages:    messages,
	})
	if err != nil {
		return Completion{}, err
	}
	return resp, nil
}

// DescribeImage sends the image (URL or data URL) to the vision model and
// returns a natural-language description. Independent of any conversation.
func (c *Client) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", fmt.Errorf("image url is required")
	}
	resp, err := c.call(ctx, chatRequest{
		Model:       c.visionModel,
		Temperature: 0.5,
		MaxTokens:   300,
		Messages: []Message{
			{Role: RoleSystem, Content: "You are an assistant that provides detailed descriptions of images."},
			{Role: RoleUser, Content: []ContentPart{
				{Type: "text", Text: "Describe the image"},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
			}},
		},
	})
	if err != nil {
		return "", err
	}
	content, ok := resp.Message.Content.(string)
	if !ok || content == "" {
		return "", fmt.Errorf("vision response missing content")
	}
	return content, nil
}

func (c *Client) call(ctx context.Context, payload chatRequest) (Completion, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Completion{}, fmt.Errorf("llm error: %s", strings.TrimSpace(string(b)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Completion{}, err
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, fmt.Errorf("llm response missing choices")
	}
	choice := parsed.Choices[0]
	c.logger.Debug("completion",
		slog.String("model", payload.Model),
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("tool_calls", len(choice.Message.ToolCalls)),
		slog.Duration("latency", time.Since(started)),
	)
	return Completion{
		Message:      choice.Message,
		FinishReason: choice.FinishReason,
	}, nil
}
