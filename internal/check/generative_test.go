package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/llm"
)

type stubProvider struct {
	content string
	err     error
	lastReq *llm.Request
}

func (p *stubProvider) Name() string { return "minimax" }

func (p *stubProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content}, nil
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantCorrect  bool
		wantFeedback string
	}{
		{"bare pass", "PASS", true, "✅ PASS"},
		{"pass with whitespace", "  \nPASS - all good\n", true, "✅ PASS - all good"},
		{"pass inside window", "Looks fine. PASS", true, "✅ Looks fine. PASS"},
		{"fail", "FAIL: Reason:\nTO_DATE left", false, "FAIL: Reason:\nTO_DATE left"},
		{"pass after window", "The submission mostly works but: PASS", false, "The submission mostly works but: PASS"},
		{"lowercase pass", "pass", false, "pass"},
		{"empty", "", false, ""},
		// the window counts characters, not bytes
		{"multibyte prefix", "结果结果结果结果结果结果结果结PASS", true, "✅ 结果结果结果结果结果结果结果结PASS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVerdict(tt.raw)
			if got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v; want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.Feedback != tt.wantFeedback {
				t.Errorf("Feedback = %q; want %q", got.Feedback, tt.wantFeedback)
			}
		})
	}
}

func TestGenerativeValidator_Validate(t *testing.T) {
	provider := &stubProvider{content: "PASS"}
	v := NewGenerativeValidator(catalog.Default(), provider)

	sub := domain.Submission{
		PatternID:    domain.PatternDate,
		QuestionCode: "SELECT TO_DATE('2023-01-01') FROM T_SALES;",
		UserCode:     "SELECT TO_TIMESTAMP_NTZ('2023-01-01') FROM T_SALES;",
	}

	got, err := v.Validate(context.Background(), sub)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !got.IsCorrect || got.Feedback != "✅ PASS" {
		t.Errorf("Validate() = %+v", got)
	}
	if got.Reviewer != "minimax" {
		t.Errorf("Reviewer = %q; want minimax", got.Reviewer)
	}

	req := provider.lastReq
	if req.MaxTokens != 4000 {
		t.Errorf("MaxTokens = %d; want 4000", req.MaxTokens)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{"P1", sub.QuestionCode, sub.UserCode, "TO_TIMESTAMP_NTZ", "SetNull()", "FAIL:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerativeValidator_ProviderError(t *testing.T) {
	v := NewGenerativeValidator(catalog.Default(), &stubProvider{err: errors.New("context deadline exceeded")})

	got, err := v.Validate(context.Background(), domain.Submission{PatternID: domain.PatternNull, UserCode: "x"})
	if err != nil {
		t.Fatalf("Validate() error = %v; provider failures must be a verdict", err)
	}
	if got.IsCorrect {
		t.Error("IsCorrect = true; want false")
	}
	if got.Feedback != "AI Review Error: context deadline exceeded" {
		t.Errorf("Feedback = %q", got.Feedback)
	}
}

func TestGenerativeValidator_UnknownPattern(t *testing.T) {
	provider := &stubProvider{content: "PASS"}
	v := NewGenerativeValidator(catalog.Default(), provider)

	_, err := v.Validate(context.Background(), domain.Submission{PatternID: "P0"})
	if !errors.Is(err, domain.ErrUnknownPattern) {
		t.Errorf("Validate() error = %v; want ErrUnknownPattern", err)
	}
	if provider.lastReq != nil {
		t.Error("provider should not be called for an unknown pattern")
	}
}
