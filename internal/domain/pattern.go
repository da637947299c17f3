package domain

// PatternID identifies a migration pattern in the catalog
type PatternID string

const (
	PatternDate      PatternID = "P1"
	PatternPunct     PatternID = "P2"
	PatternNull      PatternID = "P3"
	PatternComposite PatternID = "P4"
)

// Pattern is a named legacy-to-modern migration rule with its pool of broken samples
type Pattern struct {
	ID          PatternID
	Name        string
	Description string
	Composite   bool     // requires every individual rule to pass
	Samples     []string // canonical broken snippets, order is stable
}

// Label renders the pattern as shown in pattern pickers ("P1 - ...").
func (p Pattern) Label() string {
	return string(p.ID) + " - " + p.Name
}

// Covers reports whether a rule dedicated to target applies to this pattern.
func (p Pattern) Covers(target PatternID) bool {
	return p.Composite || p.ID == target
}

// Clone returns a copy whose sample pool does not alias the receiver's
func (p Pattern) Clone() Pattern {
	samples := make([]string, len(p.Samples))
	copy(samples, p.Samples)
	p.Samples = samples
	return p
}
