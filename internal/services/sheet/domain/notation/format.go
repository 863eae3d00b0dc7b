package notation

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
)

// ErrCannotFormat indicates a value that does not fit the requested field.
var ErrCannotFormat = apperrors.New(apperrors.CodeNotationCannotFormat, "cannot format given field/value")

// Notation reads and writes the individual pieces of asset notation.
type Notation struct {
	rules   AssetRules
	asset   *AssetGrammar
	quality *Field
	level   *Field
	desc    *Field
}

// New returns a Notation for assets of flavor r.
func New(r AssetRules) (*Notation, error) {
	g, err := assetGrammarFor(r)
	if err != nil {
		return nil, err
	}
	p := sharedParts()
	return &Notation{
		rules:   r,
		asset:   g,
		quality: p.quality,
		level:   p.level,
		desc:    p.description,
	}, nil
}

// Default returns a Notation for the default asset rules.
func Default() *Notation {
	n, err := New(DefaultAssetRules())
	if err != nil {
		panic(err)
	}
	return n
}

// Rules returns the asset flavor n reads and writes.
func (n *Notation) Rules() AssetRules { return n.rules }

// Format appends v to b. When pos is not nil its Field must be FieldAny or
// v's kind, and Begin/End are set to the offsets of the appended text.
func (n *Notation) Format(v Value, b *strings.Builder, pos *FieldPosition) error {
	if v == nil {
		return ErrCannotFormat
	}
	if pos != nil && pos.Field != FieldAny && pos.Field != v.Kind() {
		return cannotFormat(pos.Field, v)
	}
	begin := b.Len()
	switch v := v.(type) {
	case NameValue:
		if !rules.ValidName(v.Name) {
			return cannotFormat(FieldName, v)
		}
		b.WriteString(v.Name)
	case QualityValue:
		if v.Quality < 0 || v.Quality > 9 {
			return cannotFormat(FieldQuality, v)
		}
		writeQuality(b, v.Quality)
	case LevelValue:
		if v.Level < 0 {
			return cannotFormat(FieldLevel, v)
		}
		writeLevel(b, v.Level)
	case DescriptionValue:
		if !rules.ValidDescription(v.Text) {
			return cannotFormat(FieldDescription, v)
		}
		writeDescription(b, v.Text, true)
	case AssetValue:
		if v.Asset.IsZero() {
			return cannotFormat(FieldAsset, v)
		}
		writeAsset(b, v.Asset, true)
	default:
		return cannotFormat(FieldAny, v)
	}
	if pos != nil {
		pos.Begin, pos.End = begin, b.Len()
	}
	return nil
}

// FormatString renders v on its own.
func (n *Notation) FormatString(v Value) (string, error) {
	var b strings.Builder
	if err := n.Format(v, &b, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ParseObject recognizes one piece of notation at cur.Index, trying a
// quality, a level, a description and a full asset in that order. The first
// recognized piece is returned and the cursor advanced past it. When nothing
// is recognized the cursor stays put and ErrorIndex is set to it.
func (n *Notation) ParseObject(source string, cur *Cursor) (Value, bool) {
	start := cur.Index
	attempts := [...]func(string, *Cursor) (Value, bool){
		n.parseQuality,
		n.parseLevel,
		n.parseDescription,
		n.parseAsset,
	}
	for _, attempt := range attempts {
		cur.Index = start
		if v, ok := attempt(source, cur); ok {
			cur.ErrorIndex = -1
			return v, true
		}
		cur.ErrorIndex = -1
	}
	cur.Index = start
	cur.ErrorIndex = start
	return nil, false
}

func (n *Notation) parseQuality(source string, cur *Cursor) (Value, bool) {
	start := cur.Index
	c, ok := n.quality.Parse(source, cur)
	if !ok {
		return nil, false
	}
	q, err := strconv.Atoi(c.Slot(slotValue).Text)
	if err != nil || q < n.rules.QualityMin || q > n.rules.QualityMax {
		cur.Index = start
		return nil, false
	}
	return QualityValue{Quality: q}, true
}

func (n *Notation) parseLevel(source string, cur *Cursor) (Value, bool) {
	start := cur.Index
	c, ok := n.level.Parse(source, cur)
	if !ok {
		return nil, false
	}
	lv, err := strconv.Atoi(c.Slot(slotValue).Text)
	if err != nil || !rules.InRange(lv, n.rules.LevelMin, n.rules.LevelMax) {
		cur.Index = start
		return nil, false
	}
	return LevelValue{Level: lv}, true
}

func (n *Notation) parseDescription(source string, cur *Cursor) (Value, bool) {
	c, ok := n.desc.Parse(source, cur)
	if !ok {
		return nil, false
	}
	return DescriptionValue{Text: c.Slot(slotValue).Text}, true
}

func (n *Notation) parseAsset(source string, cur *Cursor) (Value, bool) {
	start := cur.Index
	c, ok := n.asset.field.Parse(source, cur)
	if !ok {
		return nil, false
	}
	a, err := assetFromCapture(n.rules, c)
	if err != nil {
		cur.Index = start
		return nil, false
	}
	return AssetValue{Asset: a}, true
}

func cannotFormat(field FieldKind, v Value) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotationCannotFormat,
		fmt.Sprintf("cannot format %T as %s", v, field),
		map[string]string{"Field": field.String()},
	)
}
