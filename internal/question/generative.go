package question

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/llm"
)

const (
	generationMaxTokens = 1000
	generationErrPrefix = "AI Generation Error: "
)

const generationSystemPrompt = "You are a professional assistant that writes code exercises."

// GenerativeSource asks a text-generation provider for a fresh broken snippet
type GenerativeSource struct {
	provider llm.Provider
}

// NewGenerativeSource creates a generative source backed by provider
func NewGenerativeSource(provider llm.Provider) *GenerativeSource {
	return &GenerativeSource{provider: provider}
}

// Question generates a snippet for the pattern. Any provider failure yields a
// failed question whose code is the error text.
func (s *GenerativeSource) Question(ctx context.Context, p domain.Pattern) domain.Question {
	req := llm.UserPrompt(generationSystemPrompt, GenerationPrompt(p), generationMaxTokens)

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return failedQuestion(p.ID, s.provider.Name(), err)
	}

	code := stripFences(resp.Content)
	if code == "" {
		return failedQuestion(p.ID, s.provider.Name(), llm.ErrEmptyResponse)
	}

	slog.Debug("generated question", "provider", s.provider.Name(), "pattern", p.ID, "code", code)
	return domain.Question{PatternID: p.ID, Code: code, Origin: domain.OriginGenerative}
}

func failedQuestion(id domain.PatternID, provider string, err error) domain.Question {
	slog.Warn("question generation failed",
		"provider", provider,
		"pattern", id,
		"error", fmt.Errorf("%w: %w", domain.ErrExternalService, err))

	return domain.Question{
		PatternID: id,
		Code:      generationErrPrefix + err.Error(),
		Origin:    domain.OriginFailed,
		Err:       err.Error(),
	}
}

// GenerationPrompt builds the user prompt asking for a broken snippet of p
func GenerationPrompt(p domain.Pattern) string {
	var sb strings.Builder

	sb.WriteString("You are a senior ETL engineer. ")
	sb.WriteString(fmt.Sprintf("The learner selected the pattern '%s - %s'.\n", p.ID, p.Description))
	sb.WriteString("Write a piece of problematic Oracle SQL or DataStage pseudocode for it.\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("1. The code must contain at least one instance of the legacy syntax that needs migrating.\n")
	sb.WriteString("2. Do not give the answer. Return only the exercise code as plain text, ")
	sb.WriteString("without Markdown markers such as ```sql.\n")
	sb.WriteString("3. Keep the scenario close to real finance or retail work (table names like T_SALES, T_CUST).\n")
	sb.WriteString("4. Produce 1-3 lines of code.\n")

	return sb.String()
}

// stripFences removes a surrounding Markdown code fence, if the model added one anyway
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	lines = lines[1:] // opening fence with optional language tag
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
