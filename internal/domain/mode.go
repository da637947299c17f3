package domain

import "fmt"

// Mode selects how questions are produced and answers are reviewed
type Mode string

const (
	ModeCanned     Mode = "canned"     // static sample pools, rule-based review
	ModeGenerative Mode = "generative" // delegated to a text-generation provider
)

// ParseMode parses a mode name. The empty string selects canned mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCanned:
		return ModeCanned, nil
	case ModeGenerative:
		return ModeGenerative, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeCanned || m == ModeGenerative
}
