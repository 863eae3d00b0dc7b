package notation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
)

// Sub-field patterns of the notation:
//
//	trait := name ("(" level ")")? (": " description)?
//	asset := name "(Q" quality ")" ("(" level ")")? (": " description)?
const (
	namePattern        = `[^\s(:](?:[^\n(:]|:[^\s(:])*`
	qualityPattern     = `\(Q(?P<value>\d)\)`
	levelPattern       = `\((?P<value>\d+)\)`
	descriptionPattern = `: (?P<value>.*?)(?:;;)?(?m:$)`
)

const (
	slotName        = "name"
	slotQuality     = "quality"
	slotLevel       = "level"
	slotDescription = "description"
	slotValue       = "value"
)

var (
	// ErrInvalidStringRepresentation indicates text that is not a complete trait or asset.
	ErrInvalidStringRepresentation = apperrors.New(apperrors.CodeNotationInvalidString, "invalid string representation")
	// ErrInvalidName indicates a name that breaks the notation.
	ErrInvalidName = apperrors.New(apperrors.CodeNotationInvalidName, "invalid name")
	// ErrInvalidLevel indicates a missing mandatory level or one outside its bounds.
	ErrInvalidLevel = apperrors.New(apperrors.CodeNotationInvalidLevel, "invalid level")
	// ErrInvalidQuality indicates a missing mandatory quality or one outside its bounds.
	ErrInvalidQuality = apperrors.New(apperrors.CodeNotationInvalidQuality, "invalid quality")
	// ErrInvalidDescription indicates a description that cannot be written on one line.
	ErrInvalidDescription = apperrors.New(apperrors.CodeNotationInvalidDescription, "invalid description")
	// ErrInvalidRules indicates inconsistent trait or asset bounds.
	ErrInvalidRules = apperrors.New(apperrors.CodeNotationInvalidRules, "invalid notation rules")
)

// TraitRules is the flavor of a trait: whether it must carry a level and the
// range that level may take.
type TraitRules struct {
	LevelMandatory bool
	LevelMin       int
	LevelMax       int
}

// DefaultTraitRules returns optional levels from 1 with no upper bound.
func DefaultTraitRules() TraitRules {
	return TraitRules{LevelMin: 1, LevelMax: rules.Unbounded}
}

// Validate checks the level range. Levels are written as plain digits, so
// they cannot be negative.
func (r TraitRules) Validate() error {
	if r.LevelMin < 0 || r.LevelMin > r.LevelMax {
		return apperrors.New(apperrors.CodeNotationInvalidRules,
			fmt.Sprintf("level range %d..%d is not writable", r.LevelMin, r.LevelMax))
	}
	return nil
}

// AssetRules extends TraitRules with the quality rating.
type AssetRules struct {
	TraitRules
	QualityMandatory bool
	QualityMin       int
	QualityMax       int
}

// DefaultAssetRules returns a mandatory quality in 0..4 over DefaultTraitRules.
func DefaultAssetRules() AssetRules {
	return AssetRules{
		TraitRules:       DefaultTraitRules(),
		QualityMandatory: true,
		QualityMin:       0,
		QualityMax:       4,
	}
}

// Validate checks both ranges. Quality is a single digit.
func (r AssetRules) Validate() error {
	if err := r.TraitRules.Validate(); err != nil {
		return err
	}
	if r.QualityMin < 0 || r.QualityMax > 9 || r.QualityMin > r.QualityMax {
		return apperrors.New(apperrors.CodeNotationInvalidRules,
			fmt.Sprintf("quality range %d..%d is not writable", r.QualityMin, r.QualityMax))
	}
	return nil
}

// parts holds the shared sub-fields both grammars are assembled from.
type parts struct {
	name        *Field
	quality     *Field
	level       *Field
	description *Field
}

var sharedParts = sync.OnceValue(func() parts {
	must := func(f *Field, err error) *Field {
		if err != nil {
			panic(err)
		}
		return f
	}
	return parts{
		name:        must(NewLeaf(slotName, namePattern)),
		quality:     must(NewComposite(slotQuality, qualityPattern, []string{slotValue})),
		level:       must(NewComposite(slotLevel, levelPattern, []string{slotValue})),
		description: must(NewComposite(slotDescription, descriptionPattern, []string{slotValue})),
	}
})

// traitFields lists the trait sub-fields for r; the asset grammar inserts its
// quality slot into the same list.
func traitFields(r TraitRules) []*Field {
	p := sharedParts()
	level := p.level
	if !r.LevelMandatory {
		level = Optional(level)
	}
	return []*Field{p.name, level, Optional(p.description)}
}

// TraitGrammar recognizes traits of one flavor.
type TraitGrammar struct {
	rules TraitRules
	field *Field
}

// NewTraitGrammar composes the trait pattern for r.
func NewTraitGrammar(r TraitRules) (*TraitGrammar, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	field, err := NewSequence("trait", traitFields(r)...)
	if err != nil {
		return nil, err
	}
	return &TraitGrammar{rules: r, field: field}, nil
}

// Rules returns the flavor the grammar was built for.
func (g *TraitGrammar) Rules() TraitRules { return g.rules }

// Field returns the composed trait field.
func (g *TraitGrammar) Field() *Field { return g.field }

// Parse builds a trait from its full string representation.
func (g *TraitGrammar) Parse(text string) (Trait, error) {
	capture, err := matchAll(g.field, text)
	if err != nil {
		return Trait{}, err
	}
	return traitFromCapture(g.rules, capture, kindTrait)
}

// AssetGrammar recognizes assets of one flavor.
type AssetGrammar struct {
	rules AssetRules
	field *Field
}

// NewAssetGrammar composes the asset pattern for r.
func NewAssetGrammar(r AssetRules) (*AssetGrammar, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	quality := sharedParts().quality
	if !r.QualityMandatory {
		quality = Optional(quality)
	}
	fields := slices.Insert(traitFields(r.TraitRules), 1, quality)
	field, err := NewSequence("asset", fields...)
	if err != nil {
		return nil, err
	}
	return &AssetGrammar{rules: r, field: field}, nil
}

// Rules returns the flavor the grammar was built for.
func (g *AssetGrammar) Rules() AssetRules { return g.rules }

// Field returns the composed asset field.
func (g *AssetGrammar) Field() *Field { return g.field }

// Parse builds an asset from its full string representation.
func (g *AssetGrammar) Parse(text string) (Asset, error) {
	capture, err := matchAll(g.field, text)
	if err != nil {
		return Asset{}, err
	}
	return assetFromCapture(g.rules, capture)
}

var assetGrammars sync.Map // AssetRules -> *AssetGrammar

// assetGrammarFor returns the cached grammar for r, building it on first use.
func assetGrammarFor(r AssetRules) (*AssetGrammar, error) {
	if g, ok := assetGrammars.Load(r); ok {
		return g.(*AssetGrammar), nil
	}
	g, err := NewAssetGrammar(r)
	if err != nil {
		return nil, err
	}
	actual, _ := assetGrammars.LoadOrStore(r, g)
	return actual.(*AssetGrammar), nil
}

var traitGrammars sync.Map // TraitRules -> *TraitGrammar

func traitGrammarFor(r TraitRules) (*TraitGrammar, error) {
	if g, ok := traitGrammars.Load(r); ok {
		return g.(*TraitGrammar), nil
	}
	g, err := NewTraitGrammar(r)
	if err != nil {
		return nil, err
	}
	actual, _ := traitGrammars.LoadOrStore(r, g)
	return actual.(*TraitGrammar), nil
}

func matchAll(field *Field, text string) (Capture, error) {
	if text == "" {
		return Capture{}, ErrInvalidStringRepresentation
	}
	capture, ok := field.Match(rules.NormalizeText(text))
	if !ok {
		return Capture{}, apperrors.WithMetadata(
			apperrors.CodeNotationInvalidString,
			fmt.Sprintf("invalid string representation: %q", text),
			map[string]string{"Text": text},
		)
	}
	return capture, nil
}

func traitFromCapture(r TraitRules, c Capture, kind string) (Trait, error) {
	level, err := numberSlot(c, slotLevel)
	if err != nil {
		return Trait{}, invalidLevel(kind, c.Slot(slotLevel).Slot(slotValue).Text)
	}
	return newTrait(r, kind, c.Slot(slotName).Text, level, descriptionSlot(c))
}

func assetFromCapture(r AssetRules, c Capture) (Asset, error) {
	quality, err := numberSlot(c, slotQuality)
	if err != nil {
		return Asset{}, invalidQuality(c.Slot(slotQuality).Slot(slotValue).Text)
	}
	trait, err := traitFromCapture(r.TraitRules, c, kindAsset)
	if err != nil {
		return Asset{}, err
	}
	return newAssetFromTrait(r, trait, quality)
}

// errDigitsOutOfRange marks a digit run too long for int.
var errDigitsOutOfRange = errors.New("digits out of range")

// numberSlot reads the decimal value of a quality or level slot. The grammar
// only admits ASCII digits there, so any other parse failure is a bug.
func numberSlot(c Capture, slot string) (optional.Value[int], error) {
	s := c.Slot(slot)
	if !s.Present {
		return optional.None[int](), nil
	}
	digits := s.Slot(slotValue).Text
	n, err := strconv.Atoi(digits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return optional.None[int](), errDigitsOutOfRange
		}
		panic(fmt.Sprintf("notation: %s slot matched non-decimal %q: %v", slot, digits, err))
	}
	return optional.Some(n), nil
}

func descriptionSlot(c Capture) string {
	return c.Slot(slotDescription).Slot(slotValue).Text
}
