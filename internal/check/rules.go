package check

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// RuleReviewer is the reviewer name recorded on rule-based verdicts
const RuleReviewer = "rules"

// Rule messages
const (
	MsgDate  = "❌ found 'TO_DATE'. Please use 'TO_TIMESTAMP_NTZ' for Snowflake."
	MsgPunct = "❌ Found full-width characters: %s. Please convert to half-width."
	MsgNull  = "❌ Found explicit empty string comparison. Use 'IsNull()' or 'SetNull()' logic."
)

// FullWidthGlyphs lists the forbidden punctuation in reporting order
var FullWidthGlyphs = []string{"＝", "＞", "＜", "（", "）", "，", "；"}

var (
	dateCall = regexp.MustCompile(`(?i)TO_DATE`)

	// whitespace includes \v and Unicode spaces such as U+3000 and U+00A0
	emptyStringCompare = regexp.MustCompile(`=[\s\v\p{Z}\x{85}]*(""|'')`)
)

type rule struct {
	id      domain.RuleID
	pattern domain.PatternID // dedicated pattern; composite patterns run every rule
	check   func(code string) *domain.Finding
}

// rules run in this order, without short-circuiting
var rules = []rule{
	{id: domain.RuleDate, pattern: domain.PatternDate, check: checkDate},
	{id: domain.RulePunct, pattern: domain.PatternPunct, check: checkPunct},
	{id: domain.RuleNull, pattern: domain.PatternNull, check: checkNull},
}

// checkDate flags any TO_DATE, case-insensitively. Code with neither TO_DATE
// nor TO_TIMESTAMP_NTZ passes.
func checkDate(code string) *domain.Finding {
	if !dateCall.MatchString(code) {
		return nil
	}
	return &domain.Finding{Rule: domain.RuleDate, Message: MsgDate, Matches: []string{"TO_DATE"}}
}

func checkPunct(code string) *domain.Finding {
	var found []string
	for _, g := range FullWidthGlyphs {
		if strings.Contains(code, g) {
			found = append(found, g)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &domain.Finding{
		Rule:    domain.RulePunct,
		Message: fmt.Sprintf(MsgPunct, strings.Join(found, ", ")),
		Matches: found,
	}
}

func checkNull(code string) *domain.Finding {
	matches := emptyStringCompare.FindAllString(code, -1)
	if len(matches) == 0 {
		return nil
	}
	return &domain.Finding{Rule: domain.RuleNull, Message: MsgNull, Matches: matches}
}

// RuleValidator checks submissions with fixed lexical rules. It is
// deterministic and holds no state beyond the catalog.
type RuleValidator struct {
	catalog *catalog.Catalog
}

// NewRuleValidator creates a rule-based validator
func NewRuleValidator(cat *catalog.Catalog) *RuleValidator {
	return &RuleValidator{catalog: cat}
}

func (v *RuleValidator) Name() string {
	return RuleReviewer
}

// Check runs every rule that applies to the pattern against code
func (v *RuleValidator) Check(id domain.PatternID, code string) (domain.Verdict, error) {
	p, err := v.catalog.Get(id)
	if err != nil {
		return domain.Verdict{}, err
	}

	var findings []domain.Finding
	for _, r := range rules {
		if !p.Covers(r.pattern) {
			continue
		}
		if f := r.check(code); f != nil {
			findings = append(findings, *f)
		}
	}

	return domain.VerdictFromFindings(RuleReviewer, findings), nil
}

// Validate checks the submission's code; the question text is not consulted
func (v *RuleValidator) Validate(_ context.Context, sub domain.Submission) (domain.Verdict, error) {
	return v.Check(sub.PatternID, sub.UserCode)
}
