package interpret

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"regard/internal/tracking"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

const defaultMaxTokens = 1024

// interpretPromptTemplate receives the entity id, movement data and metadata,
// all escaped with xmlEscape.
const interpretPromptTemplate = `You are an expert in analyzing movement data to detect anomalies and provide insightful interpretations.

Analyze the movement data of the entity below. Use the metadata, if any, for context.

<id>%s</id>
<movement_data>%s</movement_data>
<metadata>%s</metadata>

Describe any unusual movement patterns and potential explanations for them, and give a
confidence score between 0 and 1 for the accuracy of your interpretation.

Return ONLY a JSON object with this exact schema:
{"interpretation": "<explanation>", "confidence": <number between 0 and 1>}`

// ClaudeService interprets movement data with the Anthropic Messages API.
type ClaudeService struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewClaudeService creates a ClaudeService. Extra request options are passed
// to the SDK client.
func NewClaudeService(apiKey, model string, maxTokens int, logger *slog.Logger, opts ...option.RequestOption) *ClaudeService {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &ClaudeService{
		client:    &c,
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}
}

// Interpret sends one Messages request and validates the JSON answer.
func (s *ClaudeService) Interpret(ctx context.Context, req Request) (tracking.AnomalyInterpretation, error) {
	prompt := fmt.Sprintf(interpretPromptTemplate, xmlEscape(req.ID), xmlEscape(req.MovementData), xmlEscape(req.Metadata))

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You are a precise movement anomaly analyst. Output only valid JSON."},
		},
	})
	if err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("claude messages: %w", err)
	}

	var responseText string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			responseText = strings.TrimSpace(resp.Content[i].Text)
			break
		}
	}
	if responseText == "" {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: no text block in response", ErrInvalidResponse)
	}
	s.logger.Debug("claude response", "entity_id", req.ID, "response", responseText)
	return ParseResponse([]byte(responseText))
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func xmlEscape(s string) string { return xmlReplacer.Replace(s) }
