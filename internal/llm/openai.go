package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient implements the Client interface against any
// OpenAI-compatible chat completion endpoint (OpenAI itself, or Groq
// via its compatibility base URL).
type OpenAIClient struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
// An empty baseURL targets the OpenAI API. The key comes from
// OPENAI_API_KEY, or GROQ_API_KEY when the Groq base URL is used.
func NewOpenAIClient(model, baseURL string) (*OpenAIClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("model is required")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if baseURL == groqBaseURL {
		if k := os.Getenv("GROQ_API_KEY"); k != "" {
			apiKey = k
		}
	}
	if apiKey == "" {
		return nil, errors.New("no API key configured (set OPENAI_API_KEY or GROQ_API_KEY)")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Chat sends messages to the LLM and returns the response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatJSON sends messages in JSON mode and parses the response into result.
func (c *OpenAIClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion json: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response choices returned")
	}

	content := extractJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return fmt.Errorf("parsing JSON response: %w (content: %s)", err, resp.Choices[0].Message.Content)
	}
	return nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			out[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			out[i] = openai.AssistantMessage(msg.Content)
		default:
			out[i] = openai.UserMessage(msg.Content)
		}
	}
	return out
}
