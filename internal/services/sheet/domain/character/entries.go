package character

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
)

// Talent is a catalogue entry granted to the character. The catalogue itself
// lives elsewhere; the sheet only records which talents were taken.
type Talent struct {
	Name        string
	Description string
}

// entrySet holds named entries keyed by lower-cased name.
type entrySet[T any] map[string]T

func entryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(rules.NormalizeText(name)))
}

func (s *entrySet[T]) add(kind, name string, v T) error {
	key := entryKey(name)
	if _, exists := (*s)[key]; exists {
		return apperrors.WithMetadata(
			apperrors.CodeSheetDuplicateEntry,
			fmt.Sprintf("%s %q is already on the sheet", kind, name),
			map[string]string{"Kind": kind, "Name": name},
		)
	}
	if *s == nil {
		*s = make(entrySet[T])
	}
	(*s)[key] = v
	return nil
}

func (s entrySet[T]) get(name string) (T, bool) {
	v, ok := s[entryKey(name)]
	return v, ok
}

func (s entrySet[T]) remove(kind, name string) error {
	key := entryKey(name)
	if _, ok := s[key]; !ok {
		return notFound(kind, name)
	}
	delete(s, key)
	return nil
}

// sorted returns the entries ordered by key.
func (s entrySet[T]) sorted() []T {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s[k])
	}
	return out
}

func notFound(kind, name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeSheetEntryNotFound,
		fmt.Sprintf("%s %q is not on the sheet", kind, name),
		map[string]string{"Kind": kind, "Name": name},
	)
}

// AddTalent records a talent.
func (c *Character) AddTalent(t Talent) error {
	t.Name = strings.TrimSpace(rules.NormalizeText(t.Name))
	if !rules.ValidName(t.Name) {
		return apperrors.WithMetadata(
			apperrors.CodeSheetInvalidTalent,
			fmt.Sprintf("invalid talent name: %q", t.Name),
			map[string]string{"Name": t.Name},
		)
	}
	t.Description = strings.TrimSpace(t.Description)
	return c.talents.add("talent", t.Name, t)
}

// RemoveTalent drops a talent by name.
func (c *Character) RemoveTalent(name string) error {
	return c.talents.remove("talent", name)
}

// Talent looks a talent up by name, ignoring case.
func (c *Character) Talent(name string) (Talent, bool) {
	return c.talents.get(name)
}

// Talents returns the talents ordered by name.
func (c *Character) Talents() []Talent {
	return c.talents.sorted()
}

// AddTrait records a trait.
func (c *Character) AddTrait(t notation.Trait) error {
	if t.IsZero() {
		return apperrors.New(apperrors.CodeNotationInvalidName, "trait has no name")
	}
	return c.traits.add("trait", t.Name(), t)
}

// RemoveTrait drops a trait by name.
func (c *Character) RemoveTrait(name string) error {
	return c.traits.remove("trait", name)
}

// Trait looks a trait up by name, ignoring case.
func (c *Character) Trait(name string) (notation.Trait, bool) {
	return c.traits.get(name)
}

// Traits returns the traits ordered by name.
func (c *Character) Traits() []notation.Trait {
	return c.traits.sorted()
}

// AddAsset records an asset.
func (c *Character) AddAsset(a notation.Asset) error {
	if a.IsZero() {
		return apperrors.New(apperrors.CodeNotationInvalidName, "asset has no name")
	}
	return c.assets.add("asset", a.Name(), a)
}

// RemoveAsset drops an asset by name.
func (c *Character) RemoveAsset(name string) error {
	return c.assets.remove("asset", name)
}

// Asset looks an asset up by name, ignoring case.
func (c *Character) Asset(name string) (notation.Asset, bool) {
	return c.assets.get(name)
}

// Assets returns the assets ordered by name.
func (c *Character) Assets() []notation.Asset {
	return c.assets.sorted()
}

// StackedAsset returns the named asset with the modifiers applied, clamped to
// the asset's bounds. The stored asset is not changed.
func (c *Character) StackedAsset(name string, valueModifier, qualityModifier int) (notation.Asset, error) {
	a, ok := c.assets.get(name)
	if !ok {
		return notation.Asset{}, notFound("asset", name)
	}
	return a.Stacked(valueModifier, qualityModifier), nil
}
