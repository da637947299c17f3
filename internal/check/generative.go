package check

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/llm"
)

const (
	reviewMaxTokens = 4000
	reviewErrPrefix = "AI Review Error: "

	// passWindow is how many leading runes of a reply may hold the PASS marker
	passWindow = 20
)

const reviewSystemPrompt = "You are a strict code reviewer."

// GenerativeValidator delegates review to a text-generation provider
type GenerativeValidator struct {
	catalog  *catalog.Catalog
	provider llm.Provider
}

// NewGenerativeValidator creates a validator backed by provider
func NewGenerativeValidator(cat *catalog.Catalog, provider llm.Provider) *GenerativeValidator {
	return &GenerativeValidator{catalog: cat, provider: provider}
}

func (v *GenerativeValidator) Name() string {
	return v.provider.Name()
}

// Validate asks the provider to review the submission. Provider failures
// become a failing verdict carrying the error text.
func (v *GenerativeValidator) Validate(ctx context.Context, sub domain.Submission) (domain.Verdict, error) {
	p, err := v.catalog.Get(sub.PatternID)
	if err != nil {
		return domain.Verdict{}, err
	}

	req := llm.UserPrompt(reviewSystemPrompt, ReviewPrompt(p, sub), reviewMaxTokens)
	resp, err := v.provider.Generate(ctx, req)
	if err != nil {
		slog.Warn("generative review failed",
			"provider", v.provider.Name(),
			"pattern", p.ID,
			"error", fmt.Errorf("%w: %w", domain.ErrExternalService, err))
		return domain.Verdict{
			IsCorrect: false,
			Feedback:  reviewErrPrefix + err.Error(),
			Reviewer:  v.provider.Name(),
		}, nil
	}

	slog.Debug("generative review result", "provider", v.provider.Name(), "pattern", p.ID, "reply", resp.Content)

	verdict := ParseVerdict(resp.Content)
	verdict.Reviewer = v.provider.Name()
	return verdict, nil
}

// ParseVerdict interprets a review reply. The reply passes when PASS appears in
// its first 20 runes after trimming, which tolerates short leaked prefixes.
func ParseVerdict(raw string) domain.Verdict {
	reply := strings.TrimSpace(raw)

	head := []rune(reply)
	if len(head) > passWindow {
		head = head[:passWindow]
	}

	if strings.Contains(string(head), "PASS") {
		return domain.Verdict{IsCorrect: true, Feedback: "✅ " + reply}
	}
	return domain.Verdict{IsCorrect: false, Feedback: reply}
}

// ReviewPrompt builds the user prompt for reviewing sub against p
func ReviewPrompt(p domain.Pattern, sub domain.Submission) string {
	var sb strings.Builder

	sb.WriteString("Task: check whether the user migrated the code correctly to the Snowflake/DataStage conventions.\n\n")
	sb.WriteString(fmt.Sprintf("Current pattern: %s - %s (%s)\n", p.ID, p.Name, p.Description))
	sb.WriteString(fmt.Sprintf("Original exercise code:\n%s\n\n", sub.QuestionCode))
	sb.WriteString(fmt.Sprintf("Code submitted by the user:\n%s\n\n", sub.UserCode))

	sb.WriteString("Conventions:\n")
	sb.WriteString("- Oracle TO_DATE -> Snowflake TO_TIMESTAMP_NTZ\n")
	sb.WriteString("- Full-width symbols ＝＞（） -> half-width ASCII\n")
	sb.WriteString("- Empty string \"\" -> must be turned into an explicit SetNull() or IsNull() check\n\n")

	sb.WriteString("Decide:\n")
	sb.WriteString("1. If the code follows every convention, reply 'PASS'.\n")
	sb.WriteString("2. If anything was missed, reply 'FAIL' with a detailed reason.\n\n")

	sb.WriteString("For FAIL, use exactly this format (no Markdown code fences):\n")
	sb.WriteString("FAIL: Reason:\n")
	sb.WriteString("[error location/category] : [detailed explanation of what is wrong]\n")
	sb.WriteString("[convention advice] : [what the correct approach is]\n")
	sb.WriteString("Following the conventions, the complete migration is:\n")
	sb.WriteString("[corrected code snippet]\n\n")

	sb.WriteString("Example:\n")
	sb.WriteString("FAIL: Reason:\n")
	sb.WriteString("TO_DATE in WHERE clause not converted : the user converted the SELECT clause but missed the TO_DATE in the WHERE clause.\n")
	sb.WriteString("Function arguments : Snowflake TO_TIMESTAMP_NTZ does not take a second format argument.\n")
	sb.WriteString("Following the conventions, the complete migration is:\n")
	sb.WriteString("SELECT TO_TIMESTAMP_NTZ(t.order_date) ...\n")

	return sb.String()
}
