package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

// ChatCompleter is the part of the OpenAI client the extractor uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor implements port.InvoiceExtractor with a chat completion
type Extractor struct {
	client  ChatCompleter
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewExtractor creates a new invoice extractor
func NewExtractor(client ChatCompleter, model string, prompts *PromptConfig, logger *zap.Logger) *Extractor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Extractor{
		client:  client,
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

// Extract asks the model for line items and decodes its answer
func (e *Extractor) Extract(ctx context.Context, jobDetails string) (*entity.InvoiceDocumentRequest, error) {
	jobDetails = strings.TrimSpace(jobDetails)
	if jobDetails == "" {
		return nil, entity.ErrEmptyInput
	}

	prompt, err := renderTemplate(e.prompts.InvoiceExtraction.UserTemplate, struct{ JobDetails string }{jobDetails})
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction prompt: %w", err)
	}

	e.logger.Debug("Extracting invoice data",
		zap.String("model", e.model),
		zap.Int("input_length", len(jobDetails)))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.prompts.InvoiceExtraction.Temperature,
		MaxTokens:   e.prompts.InvoiceExtraction.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: e.prompts.InvoiceExtraction.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		e.logger.Error("Language model call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrExtractionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", entity.ErrMalformedResponse)
	}

	content := resp.Choices[0].Message.Content
	data, err := ParseInvoiceJSON(content)
	if err != nil {
		e.logger.Warn("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", content))
		return nil, err
	}

	e.logger.Info("Invoice data extracted",
		zap.String("client_name", data.ClientName),
		zap.Int("items", len(data.Items)))

	return data, nil
}

// ParseInvoiceJSON decodes the JSON object embedded in a model reply. The
// object is taken from the first '{' to the last '}', which tolerates prose
// and markdown fences around it.
func ParseInvoiceJSON(content string) (*entity.InvoiceDocumentRequest, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", entity.ErrMalformedResponse)
	}

	var data entity.InvoiceDocumentRequest
	if err := json.Unmarshal([]byte(content[start:end+1]), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrMalformedResponse, err)
	}

	return &data, nil
}

// Verify interface compliance
var _ port.InvoiceExtractor = (*Extractor)(nil)
