package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raykavin/rulegate/pkg/core"
	openai "github.com/sashabaranov/go-openai"
)

const extractionPrompt = `You are a trading-rule extraction service.
Given a knowledge document, respond with a JSON object describing one
single-asset daily trading rule with these fields: name, category, symbol,
timeframe (always "1d"), entry_signal, exit_signal, stop_loss (0..0.5),
position_size (0..1), default_params (map of parameter name to number).
If the document cannot be represented as such a rule, respond with a JSON
object containing only "name" and "skip_reason".`

// OpenAIExtractor implements Extractor against an OpenAI-compatible chat
// completion endpoint in JSON mode
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates an extractor using the given API token and model
func NewOpenAIExtractor(token, model string) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{
		client: openai.NewClient(token),
		model:  model,
	}
}

// Extract implements Extractor. The returned spec is validated before it is
// handed to the caller; the knowledge reference is recorded as provenance.
func (e *OpenAIExtractor) Extract(ctx context.Context, knowledgeText, reference string) (*core.StrategySpec, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: knowledgeText},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction request: empty response")
	}

	var spec core.StrategySpec
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &spec); err != nil {
		return nil, fmt.Errorf("%w: unparseable extraction response: %v", core.ErrSpecInvalid, err)
	}

	spec.Knowledge = reference
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}
