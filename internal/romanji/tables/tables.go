package tables

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Tables holds the lookup data a converter is configured with. It is
// treated as immutable once handed to a converter.
type Tables struct {
	Conversions map[string]string `json:"conversions"`
	VerbCombos  map[string]string `json:"verb_combos"`
	Nasal       map[string]string `json:"nasal"`
	Particles   map[string]string `json:"particles"`
	Tsu         map[string]string `json:"tsu"`
}

// Parse decodes tables from JSON. Missing tables decode as empty maps.
func Parse(data []byte) (Tables, error) {
	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("decoding tables: %w", err)
	}
	t.fill()
	return t, nil
}

// Load reads and parses a tables file.
func Load(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading tables %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return Tables{}, fmt.Errorf("parsing tables %s: %w", path, err)
	}
	return t, nil
}

func (t *Tables) fill() {
	for _, m := range []*map[string]string{&t.Conversions, &t.VerbCombos, &t.Nasal, &t.Particles, &t.Tsu} {
		if *m == nil {
			*m = map[string]string{}
		}
	}
}

// MaxKeyWidth is the longest conversion key, in codepoints.
func (t Tables) MaxKeyWidth() int {
	if len(t.Conversions) == 0 {
		return 0
	}
	return lo.Max(lo.Map(lo.Keys(t.Conversions), func(k string, _ int) int {
		return utf8.RuneCountInString(k)
	}))
}

// Validate reports inconsistencies between the tables. Converters never call
// it; inconsistent tables only produce silent no-op substitutions.
func (t Tables) Validate() error {
	var problems []string

	for k, v := range t.Conversions {
		if k == "" || v == "" {
			problems = append(problems, fmt.Sprintf("conversion %q => %q is empty", k, v))
		}
	}

	values := lo.Values(t.Conversions)
	firsts := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		if v == "" {
			return "", false
		}
		r, _ := utf8.DecodeRuneInString(v)
		return string(r), true
	}))

	check := func(name string, table map[string]string, known []string) {
		for k := range table {
			if !lo.Contains(known, k) {
				problems = append(problems, fmt.Sprintf("%s key %q is never produced", name, k))
			}
		}
	}
	produced := lo.Uniq(values)
	check("particle", t.Particles, produced)
	check("verb combo", t.VerbCombos, produced)
	check("nasal", t.Nasal, firsts)
	check("tsu", t.Tsu, firsts)

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("inconsistent tables: %s", strings.Join(problems, "; "))
}
