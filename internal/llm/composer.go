// Package llm turns retrieved chunks into grounded answers and widens
// retrieval recall with paraphrase questions.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"semantic-rag/internal/config"
	"semantic-rag/internal/models"
)

const (
	expandTemperature  = 0.0
	composeTemperature = 0.1
)

// Composer issues single-shot chat completions. No retries, no cache.
type Composer struct {
	model     llms.Model
	maxTokens int
}

// NewComposer builds a composer over an OpenAI-compatible chat endpoint.
func NewComposer(llmConfig *config.LLMConfig, maxTokens int) (*Composer, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat client: %w", err)
	}
	return &Composer{model: model, maxTokens: maxTokens}, nil
}

// NewComposerWithModel wires an existing model. Tests use this.
func NewComposerWithModel(model llms.Model, maxTokens int) *Composer {
	return &Composer{model: model, maxTokens: maxTokens}
}

// ExpandQuery asks the model for three similar/reformulated questions,
// one starting with 'X'. The model's lines are returned verbatim, blank
// lines dropped; count and structure are not validated.
func (c *Composer) ExpandQuery(ctx context.Context, question string) ([]string, error) {
	content, err := c.complete(ctx, models.ExpandQueryPrompt, question, expandTemperature)
	if err != nil {
		return nil, fmt.Errorf("failed to generate similar questions: %w", err)
	}

	var questions []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			questions = append(questions, line)
		}
	}
	log.Debug().Strs("questions", questions).Msg("Expanded query")
	return questions, nil
}

// ComposeAnswer builds the grounded-answer prompt from the retrieved
// chunks and requests a completion.
func (c *Composer) ComposeAnswer(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	contextText := strings.Join(contents, "\n\n")

	system := fmt.Sprintf(models.ComposeAnswerPrompt, contextText, question)
	answer, err := c.complete(ctx, system, question, composeTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

func (c *Composer) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: user}},
		},
	}

	res, err := c.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return res.Choices[0].Content, nil
}
