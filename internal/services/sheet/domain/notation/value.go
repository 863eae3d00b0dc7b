package notation

// FieldKind identifies one part of the notation.
type FieldKind int

const (
	// FieldAny accepts whatever kind the formatted value has.
	FieldAny FieldKind = iota
	FieldName
	FieldQuality
	FieldLevel
	FieldDescription
	FieldAsset
)

func (k FieldKind) String() string {
	switch k {
	case FieldAny:
		return "any"
	case FieldName:
		return "name"
	case FieldQuality:
		return "quality"
	case FieldLevel:
		return "level"
	case FieldDescription:
		return "description"
	case FieldAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// FieldPosition selects the field a Format call is expected to write and
// receives the offsets of the text it appended.
type FieldPosition struct {
	Field FieldKind
	Begin int
	End   int
}

// Value is one formattable or parsed piece of notation. The set of variants
// is closed: NameValue, QualityValue, LevelValue, DescriptionValue and
// AssetValue.
type Value interface {
	Kind() FieldKind
	sealed()
}

// NameValue is a bare trait or asset name.
type NameValue struct{ Name string }

// QualityValue is a quality rating, written "(Q<n>)".
type QualityValue struct{ Quality int }

// LevelValue is a level, written "(<n>)".
type LevelValue struct{ Level int }

// DescriptionValue is a description, written ": <text>;;".
type DescriptionValue struct{ Text string }

// AssetValue is a complete asset.
type AssetValue struct{ Asset Asset }

func (NameValue) Kind() FieldKind        { return FieldName }
func (QualityValue) Kind() FieldKind     { return FieldQuality }
func (LevelValue) Kind() FieldKind       { return FieldLevel }
func (DescriptionValue) Kind() FieldKind { return FieldDescription }
func (AssetValue) Kind() FieldKind       { return FieldAsset }

func (NameValue) sealed()        {}
func (QualityValue) sealed()     {}
func (LevelValue) sealed()       {}
func (DescriptionValue) sealed() {}
func (AssetValue) sealed()       {}
