package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func TestDefault_ListOrder(t *testing.T) {
	c := catalog.Default()

	var ids []domain.PatternID
	for _, p := range c.List() {
		ids = append(ids, p.ID)
	}

	want := []domain.PatternID{domain.PatternDate, domain.PatternPunct, domain.PatternNull, domain.PatternComposite}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("List() ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_OnlyCompositeIsComposite(t *testing.T) {
	for _, p := range catalog.Default().List() {
		if p.Composite != (p.ID == domain.PatternComposite) {
			t.Errorf("pattern %s Composite = %v", p.ID, p.Composite)
		}
		if len(p.Samples) == 0 {
			t.Errorf("pattern %s has no samples", p.ID)
		}
	}
}

func TestDescribe(t *testing.T) {
	c := catalog.Default()

	desc, err := c.Describe(domain.PatternDate)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if desc == "" {
		t.Error("Describe() returned empty description")
	}

	_, err = c.Describe("P9")
	if !errors.Is(err, domain.ErrUnknownPattern) {
		t.Errorf("Describe(P9) error = %v; want ErrUnknownPattern", err)
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := catalog.Default().Get("nope")
	if !errors.Is(err, domain.ErrUnknownPattern) {
		t.Errorf("Get() error = %v; want ErrUnknownPattern", err)
	}
}

func TestSamples_ReturnsCopy(t *testing.T) {
	c := catalog.Default()

	samples, err := c.Samples(domain.PatternNull)
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	samples[0] = "mutated"

	again, _ := c.Samples(domain.PatternNull)
	if again[0] == "mutated" {
		t.Error("Samples() exposed the catalog's internal pool")
	}
}

func TestLoadFile_ExtendsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	overlay := `patterns:
  - id: P1
    samples:
      - "SELECT TO_DATE(ORDER_DT, 'YYYYMMDD') FROM T_ORDERS;"
      - "   "
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	c, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	samples, _ := c.Samples(domain.PatternDate)
	defaults, _ := catalog.Default().Samples(domain.PatternDate)
	if len(samples) != len(defaults)+1 {
		t.Fatalf("len(samples) = %d; want %d", len(samples), len(defaults)+1)
	}
	if samples[len(samples)-1] != "SELECT TO_DATE(ORDER_DT, 'YYYYMMDD') FROM T_ORDERS;" {
		t.Errorf("last sample = %q", samples[len(samples)-1])
	}
	if got := c.Stats().PatternCount; got != 4 {
		t.Errorf("PatternCount = %d; want 4", got)
	}
}

func TestLoadBytes_UnknownPattern(t *testing.T) {
	_, err := catalog.LoadBytes([]byte("patterns:\n  - id: P7\n    samples: [x]\n"))
	if !errors.Is(err, domain.ErrUnknownPattern) {
		t.Errorf("LoadBytes() error = %v; want ErrUnknownPattern", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}
