package notation

import (
	"strconv"
	"strings"

	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
)

// Asset is a trait that also carries a quality rating, such as a weapon or a
// vehicle. Assets are immutable values; compare them with ==.
type Asset struct {
	trait   Trait
	rules   AssetRules
	quality optional.Value[int]
}

// NewAsset validates the parts of an asset against r.
func NewAsset(r AssetRules, name string, quality, level optional.Value[int], description string) (Asset, error) {
	if err := r.Validate(); err != nil {
		return Asset{}, err
	}
	trait, err := newTrait(r.TraitRules, kindAsset, name, level, description)
	if err != nil {
		return Asset{}, err
	}
	return newAssetFromTrait(r, trait, quality)
}

func newAssetFromTrait(r AssetRules, trait Trait, quality optional.Value[int]) (Asset, error) {
	if q, ok := quality.Get(); ok {
		if q < r.QualityMin || q > r.QualityMax {
			return Asset{}, invalidQuality(strconv.Itoa(q))
		}
	} else if r.QualityMandatory {
		return Asset{}, invalidQuality("")
	}
	return Asset{trait: trait, rules: r, quality: quality}, nil
}

// Of parses an asset written in notation with the default asset rules.
func Of(text string) (Asset, error) {
	return OfWithRules(DefaultAssetRules(), text)
}

// OfWithRules parses an asset written in notation under r.
func OfWithRules(r AssetRules, text string) (Asset, error) {
	g, err := assetGrammarFor(r)
	if err != nil {
		return Asset{}, err
	}
	return g.Parse(text)
}

// CreateAnotherFromString parses text like Of, except that empty input
// yields an absent asset instead of an error.
func CreateAnotherFromString(text string) (optional.Value[Asset], error) {
	if text == "" {
		return optional.None[Asset](), nil
	}
	a, err := Of(text)
	if err != nil {
		return optional.None[Asset](), err
	}
	return optional.Some(a), nil
}

// CreateAnotherFromString parses text under the rules of a. Empty input
// yields an absent asset.
func (a Asset) CreateAnotherFromString(text string) (optional.Value[Asset], error) {
	if text == "" {
		return optional.None[Asset](), nil
	}
	other, err := OfWithRules(a.rules, text)
	if err != nil {
		return optional.None[Asset](), err
	}
	return optional.Some(other), nil
}

// ToString renders a present asset in canonical notation.
func ToString(a optional.Value[Asset]) optional.Value[string] {
	asset, ok := a.Get()
	if !ok {
		return optional.None[string]()
	}
	return optional.Some(asset.String())
}

// Name returns the asset name.
func (a Asset) Name() string { return a.trait.name }

// Quality returns the quality rating, absent when none was written.
func (a Asset) Quality() optional.Value[int] { return a.quality }

// EffectiveQuality returns the quality rating, reading an absent one as 0.
func (a Asset) EffectiveQuality() int { return a.quality.Or(0) }

// Level returns the asset level, absent when none was written.
func (a Asset) Level() optional.Value[int] { return a.trait.level }

// Description returns the description, "" when there is none.
func (a Asset) Description() string { return a.trait.description }

// Rules returns the flavor the asset was validated against.
func (a Asset) Rules() AssetRules { return a.rules }

// Trait returns the asset without its quality.
func (a Asset) Trait() Trait { return a.trait }

// IsZero reports whether a is the zero Asset.
func (a Asset) IsZero() bool { return a.trait.IsZero() }

// Stacked returns the asset with valueModifier added to its level and
// qualityModifier added to its quality, each clamped to the asset's bounds.
// Absent parts stay absent.
func (a Asset) Stacked(valueModifier, qualityModifier int) Asset {
	a.trait = a.trait.Stacked(valueModifier)
	a.quality = stack(a.quality, qualityModifier, a.rules.QualityMin, a.rules.QualityMax)
	return a
}

// String renders the asset in canonical notation, without the trailing ";;"
// the formatter appends after a description.
func (a Asset) String() string {
	var b strings.Builder
	writeAsset(&b, a, false)
	return b.String()
}

func writeAsset(b *strings.Builder, a Asset, terminate bool) {
	b.WriteString(a.trait.name)
	if q, ok := a.quality.Get(); ok {
		writeQuality(b, q)
	}
	if lv, ok := a.trait.level.Get(); ok {
		writeLevel(b, lv)
	}
	if a.trait.description != "" {
		writeDescription(b, a.trait.description, terminate)
	}
}
