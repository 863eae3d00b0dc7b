package notation

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
)

const (
	kindTrait = "trait"
	kindAsset = "asset"
)

// Trait is a named character capability with an optional level and
// description. Traits are immutable values; compare them with ==.
type Trait struct {
	rules       TraitRules
	name        string
	level       optional.Value[int]
	description string
}

// NewTrait validates the parts of a trait against r.
func NewTrait(r TraitRules, name string, level optional.Value[int], description string) (Trait, error) {
	if err := r.Validate(); err != nil {
		return Trait{}, err
	}
	return newTrait(r, kindTrait, name, level, description)
}

func newTrait(r TraitRules, kind, name string, level optional.Value[int], description string) (Trait, error) {
	name = rules.NormalizeText(name)
	if !rules.ValidName(name) {
		return Trait{}, apperrors.WithMetadata(
			apperrors.CodeNotationInvalidName,
			fmt.Sprintf("invalid %s name: %q", kind, name),
			map[string]string{"Name": name},
		)
	}
	if lv, ok := level.Get(); ok {
		if !rules.InRange(lv, r.LevelMin, r.LevelMax) {
			return Trait{}, invalidLevel(kind, strconv.Itoa(lv))
		}
	} else if r.LevelMandatory {
		return Trait{}, invalidLevel(kind, "")
	}
	description = rules.NormalizeText(description)
	if strings.TrimSpace(description) == "" {
		description = ""
	}
	if !rules.ValidDescription(description) {
		return Trait{}, apperrors.WithMetadata(
			apperrors.CodeNotationInvalidDescription,
			fmt.Sprintf("invalid %s description: %q", kind, description),
			map[string]string{"Description": description},
		)
	}
	return Trait{rules: r, name: name, level: level, description: description}, nil
}

// OfTrait parses a trait written in notation with the default trait rules.
func OfTrait(text string) (Trait, error) {
	return OfTraitWithRules(DefaultTraitRules(), text)
}

// OfTraitWithRules parses a trait written in notation under r.
func OfTraitWithRules(r TraitRules, text string) (Trait, error) {
	g, err := traitGrammarFor(r)
	if err != nil {
		return Trait{}, err
	}
	return g.Parse(text)
}

// Name returns the trait name.
func (t Trait) Name() string { return t.name }

// Level returns the trait level, absent when none was written.
func (t Trait) Level() optional.Value[int] { return t.level }

// Description returns the description, empty when none was written.
func (t Trait) Description() string { return t.description }

// Rules returns the flavor the trait was validated against.
func (t Trait) Rules() TraitRules { return t.rules }

// IsZero reports whether t is the zero Trait.
func (t Trait) IsZero() bool { return t.name == "" }

// Stacked returns the trait with modifier added to its level, clamped to the
// trait's level bounds. A trait without a level is returned unchanged.
func (t Trait) Stacked(modifier int) Trait {
	t.level = stack(t.level, modifier, t.rules.LevelMin, t.rules.LevelMax)
	return t
}

// String renders the trait in canonical notation.
func (t Trait) String() string {
	var b strings.Builder
	writeTrait(&b, t)
	return b.String()
}

// writeTrait appends name, level and description; quality is written by the
// asset between name and level.
func writeTrait(b *strings.Builder, t Trait) {
	b.WriteString(t.name)
	if lv, ok := t.level.Get(); ok {
		writeLevel(b, lv)
	}
	if t.description != "" {
		writeDescription(b, t.description, false)
	}
}

func writeQuality(b *strings.Builder, q int) {
	b.WriteString("(Q")
	b.WriteString(strconv.Itoa(q))
	b.WriteString(")")
}

func writeLevel(b *strings.Builder, lv int) {
	b.WriteString("(")
	b.WriteString(strconv.Itoa(lv))
	b.WriteString(")")
}

func writeDescription(b *strings.Builder, d string, terminate bool) {
	b.WriteString(": ")
	b.WriteString(d)
	if terminate {
		b.WriteString(";;")
	}
}

func stack(v optional.Value[int], modifier, lo, hi int) optional.Value[int] {
	current, ok := v.Get()
	if !ok {
		return v
	}
	return optional.Some(rules.Clamp(rules.SaturatingAdd(current, modifier), lo, hi))
}

func invalidLevel(kind, level string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotationInvalidLevel,
		fmt.Sprintf("invalid %s level: %q", kind, level),
		map[string]string{"Level": level},
	)
}

func invalidQuality(quality string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotationInvalidQuality,
		fmt.Sprintf("invalid asset quality: %q", quality),
		map[string]string{"Quality": quality},
	)
}
