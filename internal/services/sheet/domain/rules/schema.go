package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
)

// Schema defaults for new characters.
const (
	SkillMin  = 4
	SkillMax  = 8
	SkillPool = 28

	AttributeMin  = 4
	AttributeMax  = 8
	AttributePool = 30

	// StatementThreshold is the lowest attribute rating that may carry a
	// drive statement.
	StatementThreshold = 6
)

// ErrInvalidSchema indicates a schema definition that cannot bound a sheet.
var ErrInvalidSchema = apperrors.New(apperrors.CodeSchemaInvalid, "invalid term schema")

// Schema describes one family of rated terms: their names in display order,
// the legal range of each rating and the pool the ratings share.
type Schema struct {
	Terms []string `yaml:"terms" toml:"terms"`
	Min   int      `yaml:"min" toml:"min"`
	Max   int      `yaml:"max" toml:"max"`
	Pool  int      `yaml:"pool" toml:"pool"`
	// StatementThreshold is only meaningful for attributes; zero disables
	// drive statements entirely.
	StatementThreshold int `yaml:"statement_threshold" toml:"statement_threshold"`
}

// Schemas pairs the skill and attribute schemas a character is created with.
type Schemas struct {
	Skills     Schema
	Attributes Schema
}

// DefaultSkills returns the default skill schema.
func DefaultSkills() Schema {
	return Schema{
		Terms: []string{"Battle", "Communicate", "Discipline", "Move", "Understand"},
		Min:   SkillMin,
		Max:   SkillMax,
		Pool:  SkillPool,
	}
}

// DefaultAttributes returns the default attribute (drive) schema.
func DefaultAttributes() Schema {
	return Schema{
		Terms:              []string{"Duty", "Faith", "Justice", "Power", "Truth"},
		Min:                AttributeMin,
		Max:                AttributeMax,
		Pool:               AttributePool,
		StatementThreshold: StatementThreshold,
	}
}

// DefaultSchemas returns the default skill and attribute schemas.
func DefaultSchemas() Schemas {
	return Schemas{Skills: DefaultSkills(), Attributes: DefaultAttributes()}
}

// Validate checks that the schema is internally consistent.
func (s Schema) Validate() error {
	if len(s.Terms) == 0 {
		return invalidSchema("schema must list at least one term")
	}
	seen := make(map[string]struct{}, len(s.Terms))
	for _, term := range s.Terms {
		if !ValidName(term) {
			return invalidSchema(fmt.Sprintf("term %q is not a valid name", term))
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			return invalidSchema(fmt.Sprintf("term %q is listed twice", term))
		}
		seen[key] = struct{}{}
	}
	if s.Min > s.Max {
		return invalidSchema(fmt.Sprintf("min %d exceeds max %d", s.Min, s.Max))
	}
	if s.Pool < len(s.Terms)*s.Min {
		return invalidSchema(fmt.Sprintf("pool %d cannot hold %d terms at %d", s.Pool, len(s.Terms), s.Min))
	}
	if s.StatementThreshold < 0 {
		return invalidSchema("statement threshold must be non-negative")
	}
	return nil
}

// Validate checks both schemas.
func (s Schemas) Validate() error {
	if err := s.Skills.Validate(); err != nil {
		return fmt.Errorf("skills: %w", err)
	}
	if err := s.Attributes.Validate(); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	return nil
}

// Clone returns a copy that does not share the term slice.
func (s Schema) Clone() Schema {
	s.Terms = slices.Clone(s.Terms)
	return s
}

// Has reports whether term is one of the schema's canonical term names.
func (s Schema) Has(term string) bool {
	return slices.Contains(s.Terms, term)
}

// Canonical resolves a user-supplied term name to its canonical spelling,
// ignoring case.
func (s Schema) Canonical(term string) (string, bool) {
	term = strings.TrimSpace(term)
	for _, candidate := range s.Terms {
		if candidate == term {
			return candidate, true
		}
	}
	for _, candidate := range s.Terms {
		if strings.EqualFold(candidate, term) {
			return candidate, true
		}
	}
	return "", false
}

// Compare orders terms by their position in the schema. Terms outside the
// schema sort after every known term, alphabetically.
func (s Schema) Compare(a, b string) int {
	ia, ib := slices.Index(s.Terms, a), slices.Index(s.Terms, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Suggest returns the known term closest to an unknown one, or "" when none
// is close enough to be a plausible typo.
func (s Schema) Suggest(term string) string {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return ""
	}
	best, bestDistance := "", len(needle)/2+1
	for _, candidate := range s.Terms {
		distance := levenshtein.ComputeDistance(needle, strings.ToLower(candidate))
		if distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

func invalidSchema(message string) error {
	return apperrors.New(apperrors.CodeSchemaInvalid, message)
}
