package oracle

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// defaultMaxTokens is used when the request leaves MaxTokens unset; the
// Messages API requires an explicit ceiling.
const defaultMaxTokens = 4096

// anthropicClient implements Client using the official anthropic-sdk-go.
type anthropicClient struct {
	client sdk.Client
	model  string
	keySet bool
}

// NewAnthropic creates an oracle Client backed by the Anthropic Messages API.
// An empty API key is tolerated at construction; Generate then fails with
// UnavailableError so the caller's error taxonomy stays uniform.
func NewAnthropic(apiKey, model string) Client {
	return &anthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		keySet: apiKey != "",
	}
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if !c.keySet {
		return nil, &UnavailableError{Err: eris.New("anthropic: api key not configured")}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]sdk.MessageParam, 0, len(req.Turns)+1)
	for _, t := range req.Turns {
		block := sdk.NewTextBlock(t.Content)
		switch t.Role {
		case "assistant":
			messages = append(messages, sdk.NewAssistantMessage(block))
		default:
			messages = append(messages, sdk.NewUserMessage(block))
		}
	}
	messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)))

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Response{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// classifyAnthropicError maps SDK failures onto the oracle error taxonomy:
// client-side rejections become RequestError, everything else (network
// failures, 5xx, rate limiting) becomes UnavailableError.
func classifyAnthropicError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 408 || apierr.StatusCode == 429 || apierr.StatusCode >= 500:
			return &UnavailableError{Err: eris.Wrap(err, "anthropic: create message")}
		case apierr.StatusCode >= 400:
			return &RequestError{Err: eris.Wrap(err, "anthropic: create message")}
		}
	}
	return &UnavailableError{Err: eris.Wrap(err, "anthropic: create message")}
}
