package normalizer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultSentinels = []string{"blank", "test", "-", "na", "n/a", "nil", "none"}

// SchoolGroup maps spelling variants to one canonical school name.
type SchoolGroup struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

type schoolFile struct {
	Sentinels []string      `yaml:"sentinels"`
	Schools   []SchoolGroup `yaml:"schools"`
}

// SchoolNames is an exact-match variant table. Build it once and share it;
// lookups are read-only.
type SchoolNames struct {
	variants  map[string]string
	sentinels map[string]struct{}
}

// DefaultSchoolNames returns a table with no variants and the default sentinels.
func DefaultSchoolNames() *SchoolNames {
	return NewSchoolNames(nil, nil)
}

// NewSchoolNames builds a lookup table. Nil sentinels selects the defaults.
func NewSchoolNames(groups []SchoolGroup, sentinels []string) *SchoolNames {
	if sentinels == nil {
		sentinels = defaultSentinels
	}
	t := &SchoolNames{
		variants:  make(map[string]string),
		sentinels: make(map[string]struct{}, len(sentinels)),
	}
	for _, s := range sentinels {
		t.sentinels[schoolKey(s)] = struct{}{}
	}
	for _, g := range groups {
		canonical := strings.TrimSpace(g.Canonical)
		if canonical == "" {
			continue
		}
		t.variants[schoolKey(canonical)] = canonical
		for _, v := range g.Variants {
			t.variants[schoolKey(v)] = canonical
		}
	}
	return t
}

// LoadSchoolNames reads a YAML variant table:
//
//	sentinels: [blank, test]
//	schools:
//	  - canonical: Delhi Public School
//	    variants: [DPS, D.P.S., delhi public schl]
func LoadSchoolNames(path string) (*SchoolNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read school variants: %w", err)
	}
	var file schoolFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse school variants: %w", err)
	}
	for i, g := range file.Schools {
		if strings.TrimSpace(g.Canonical) == "" {
			return nil, fmt.Errorf("school group %d: canonical name is required", i)
		}
	}
	return NewSchoolNames(file.Schools, file.Sentinels), nil
}

// Normalize returns the canonical name for raw. Sentinel and empty values
// return ok=false meaning "no school"; unknown names pass through trimmed.
func (t *SchoolNames) Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if t == nil {
		return trimmed, true
	}
	key := schoolKey(trimmed)
	if _, sentinel := t.sentinels[key]; sentinel {
		return "", false
	}
	if canonical, ok := t.variants[key]; ok {
		return canonical, true
	}
	return trimmed, true
}

// Len reports how many variant spellings are known.
func (t *SchoolNames) Len() int {
	if t == nil {
		return 0
	}
	return len(t.variants)
}

func schoolKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
