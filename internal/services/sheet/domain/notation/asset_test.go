package notation

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
)

func TestOfLasgun(t *testing.T) {
	a, err := Of("Lasgun(Q2)(3): military-grade")
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if a.Name() != "Lasgun" {
		t.Errorf("name = %q", a.Name())
	}
	if q, ok := a.Quality().Get(); !ok || q != 2 {
		t.Errorf("quality = %v", a.Quality())
	}
	if lv, ok := a.Level().Get(); !ok || lv != 3 {
		t.Errorf("level = %v", a.Level())
	}
	if a.Description() != "military-grade" {
		t.Errorf("description = %q", a.Description())
	}
	got, err := Default().FormatString(AssetValue{Asset: a})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if want := "Lasgun(Q2)(3): military-grade;;"; got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
	if want := "Lasgun(Q2)(3): military-grade"; a.String() != want {
		t.Fatalf("String = %q, want %q", a.String(), want)
	}
}

func TestOfErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrInvalidStringRepresentation},
		{"trailing text", "Shield(Q1) extra", ErrInvalidStringRepresentation},
		{"missing quality", "Shield", ErrInvalidStringRepresentation},
		{"quality after level", "Shield(2)(Q1)", ErrInvalidStringRepresentation},
		{"two digit quality", "Shield(Q12)", ErrInvalidStringRepresentation},
		{"description without space", "Shield(Q1):x", ErrInvalidStringRepresentation},
		{"quality above bound", "Shield(Q5)", ErrInvalidQuality},
		{"level below bound", "Shield(Q1)(0)", ErrInvalidLevel},
		{"level overflow", "Shield(Q1)(99999999999999999999999999)", ErrInvalidLevel},
		{"name with trailing space", "Shield (Q1)", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Of(tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Of(%q) = %v, %v; want %v", tt.input, a, err, tt.want)
			}
		})
	}
}

func TestOfQualityZero(t *testing.T) {
	a, err := Of("Shield(Q0)")
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if q, ok := a.Quality().Get(); !ok || q != 0 {
		t.Fatalf("quality = %v, want 0", a.Quality())
	}
	if a.Level().Present() || a.Description() != "" {
		t.Fatalf("unexpected parts: %v %q", a.Level(), a.Description())
	}
}

func TestRoundTrip(t *testing.T) {
	rules := DefaultAssetRules()
	tests := []struct {
		name        string
		assetName   string
		quality     optional.Value[int]
		level       optional.Value[int]
		description string
	}{
		{"bare", "Shield", optional.Some(1), optional.None[int](), ""},
		{"full", "Lasgun", optional.Some(2), optional.Some(3), "military-grade"},
		{"large level", "Ornithopter", optional.Some(4), optional.Some(math.MaxInt), ""},
		{"inner colon", "House:Atreides", optional.Some(0), optional.Some(1), "signet"},
		{"closing paren in name", "Shield)", optional.Some(1), optional.None[int](), ""},
		{"spaces in name", "Crysknife of the Fremen", optional.Some(3), optional.None[int](), "sacred"},
		{"description looks like notation", "Maula", optional.Some(1), optional.Some(2), "fires (Q3): darts"},
		{"description ends in semicolon", "Stillsuit", optional.Some(2), optional.None[int](), "patched;"},
		{"padded description", "Thumper", optional.Some(1), optional.None[int](), " loud "},
		{"unicode", "Épée", optional.Some(2), optional.Some(1), "à deux mains"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAsset(rules, tt.assetName, tt.quality, tt.level, tt.description)
			if err != nil {
				t.Fatalf("NewAsset: %v", err)
			}
			back, err := Of(a.String())
			if err != nil {
				t.Fatalf("Of(%q): %v", a.String(), err)
			}
			if back != a {
				t.Fatalf("round trip of %q = %+v, want %+v", a.String(), back, a)
			}

			formatted, err := Default().FormatString(AssetValue{Asset: a})
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			back, err = Of(formatted)
			if err != nil || back != a {
				t.Fatalf("round trip of formatted %q = %+v, %v", formatted, back, err)
			}
		})
	}
}

func TestNewAssetRejects(t *testing.T) {
	rules := DefaultAssetRules()
	tests := []struct {
		name        string
		assetName   string
		quality     optional.Value[int]
		description string
		want        error
	}{
		{"empty name", "", optional.Some(1), "", ErrInvalidName},
		{"name with paren", "Shield(x", optional.Some(1), "", ErrInvalidName},
		{"name with colon space", "Duke: Leto", optional.Some(1), "", ErrInvalidName},
		{"missing quality", "Shield", optional.None[int](), "", ErrInvalidQuality},
		{"negative quality", "Shield", optional.Some(-1), "", ErrInvalidQuality},
		{"multi-line description", "Shield", optional.Some(1), "a\nb", ErrInvalidDescription},
		{"description ending in terminator", "Shield", optional.Some(1), "ends;;", ErrInvalidDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAsset(rules, tt.assetName, tt.quality, optional.None[int](), tt.description)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBlankDescriptionIsDropped(t *testing.T) {
	a, err := NewAsset(DefaultAssetRules(), "Shield", optional.Some(1), optional.None[int](), "   ")
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	if a.String() != "Shield(Q1)" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestRulesValidation(t *testing.T) {
	bad := []AssetRules{
		{TraitRules: TraitRules{LevelMin: 3, LevelMax: 2}, QualityMax: 4},
		{TraitRules: TraitRules{LevelMin: -1, LevelMax: 2}, QualityMax: 4},
		{TraitRules: DefaultTraitRules(), QualityMax: 10},
		{TraitRules: DefaultTraitRules(), QualityMin: 3, QualityMax: 2},
	}
	for _, r := range bad {
		if _, err := NewAssetGrammar(r); !errors.Is(err, ErrInvalidRules) {
			t.Errorf("NewAssetGrammar(%+v) = %v, want ErrInvalidRules", r, err)
		}
	}
}

func TestOptionalQualityReadsAsZero(t *testing.T) {
	r := DefaultAssetRules()
	r.QualityMandatory = false
	a, err := OfWithRules(r, "Cloak(2)")
	if err != nil {
		t.Fatalf("OfWithRules: %v", err)
	}
	if a.Quality().Present() {
		t.Fatalf("quality = %v, want absent", a.Quality())
	}
	if a.EffectiveQuality() != 0 {
		t.Fatalf("effective quality = %d, want 0", a.EffectiveQuality())
	}
	if a.String() != "Cloak(2)" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestMandatoryLevel(t *testing.T) {
	r := DefaultAssetRules()
	r.LevelMandatory = true
	if _, err := OfWithRules(r, "Cloak(Q1)"); !errors.Is(err, ErrInvalidStringRepresentation) {
		t.Fatalf("expected missing level to fail, got %v", err)
	}
	if _, err := OfWithRules(r, "Cloak(Q1)(1)"); err != nil {
		t.Fatalf("OfWithRules: %v", err)
	}
}

func TestStackedClamps(t *testing.T) {
	a, err := Of("Lasgun(Q2)(3)")
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	tests := []struct {
		name             string
		value, quality   int
		wantLv, wantQual int
	}{
		{"no change", 0, 0, 3, 2},
		{"small", 2, 1, 5, 3},
		{"huge", math.MaxInt, math.MaxInt, math.MaxInt, 4},
		{"huge negative", math.MinInt, math.MinInt, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := a.Stacked(tt.value, tt.quality)
			if lv, _ := s.Level().Get(); lv != tt.wantLv {
				t.Errorf("level = %d, want %d", lv, tt.wantLv)
			}
			if q, _ := s.Quality().Get(); q != tt.wantQual {
				t.Errorf("quality = %d, want %d", q, tt.wantQual)
			}
		})
	}
	if lv, _ := a.Level().Get(); lv != 3 {
		t.Fatal("Stacked must not modify the receiver")
	}

	bare, _ := Of("Shield(Q1)")
	if bare.Stacked(5, 0).Level().Present() {
		t.Fatal("stacking must not invent a level")
	}
}

func TestCreateAnotherFromString(t *testing.T) {
	got, err := CreateAnotherFromString("")
	if err != nil || got.Present() {
		t.Fatalf("empty input = %v, %v; want absent", got, err)
	}
	if _, err := CreateAnotherFromString("Shield(Q9)"); !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}

	r := DefaultAssetRules()
	r.QualityMax = 9
	base, err := NewAsset(r, "Ship", optional.Some(9), optional.None[int](), "")
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	other, err := base.CreateAnotherFromString("Frigate(Q8)")
	if err != nil {
		t.Fatalf("CreateAnotherFromString: %v", err)
	}
	if a, _ := other.Get(); a.Rules() != r || a.EffectiveQuality() != 8 {
		t.Fatalf("other = %+v", a)
	}
}

func TestToString(t *testing.T) {
	if ToString(optional.None[Asset]()).Present() {
		t.Fatal("absent asset must render absent")
	}
	a, _ := Of("Lasgun(Q2): worn;;")
	s, ok := ToString(optional.Some(a)).Get()
	if !ok || s != "Lasgun(Q2): worn" {
		t.Fatalf("ToString = %q, %v", s, ok)
	}
}

func TestOfTrait(t *testing.T) {
	tr, err := OfTrait("Mentat(2): human computer")
	if err != nil {
		t.Fatalf("OfTrait: %v", err)
	}
	if tr.Name() != "Mentat" || tr.Description() != "human computer" {
		t.Fatalf("trait = %+v", tr)
	}
	if lv, _ := tr.Level().Get(); lv != 2 {
		t.Fatalf("level = %v", tr.Level())
	}
	if tr.String() != "Mentat(2): human computer" {
		t.Fatalf("String = %q", tr.String())
	}
	if _, err := OfTrait("Mentat(Q2)"); !errors.Is(err, ErrInvalidStringRepresentation) {
		t.Fatalf("a quality is not part of a trait, got %v", err)
	}
	if s := tr.Stacked(3); s.String() != "Mentat(5): human computer" {
		t.Fatalf("stacked = %q", s.String())
	}
	if lv, _ := tr.Stacked(math.MinInt).Level().Get(); lv != 1 {
		t.Fatalf("stacked below bound = %d, want 1", lv)
	}
}

func TestConcurrentParsing(t *testing.T) {
	inputs := []string{"Lasgun(Q2)(3): military-grade", "Shield(Q0)", "Stillsuit(Q3): patched;;"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, in := range inputs {
				if _, err := Of(in); err != nil {
					t.Errorf("Of(%q): %v", in, err)
				}
			}
		}()
	}
	wg.Wait()
}

// Every name the shared predicate accepts must survive rendering and
// reparsing; every name it rejects must be refused at construction.
func TestNamesRoundTripWhenValid(t *testing.T) {
	names := []string{
		"Lasgun", "Crysknife of the Fremen", "House:Atreides", "x:y:z", "Shield)", "a)b", ")",
		"Épée", "Cafe\u0301", "E\u0301pe\u0301e", "\u0301x", "Las\tgun", "Q1", "1", "x;;", "a:)",
		":x", ":", "::", "a::b", "a:(b", "Duke: Leto", "Duke:", "Shield(Q1", "(",
		" Lasgun", "Lasgun ", "\tLasgun", "Las\ngun", "Las\rgun", "a:\tb", "",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			valid := rules.ValidName(rules.NormalizeText(name))

			a, err := NewAsset(DefaultAssetRules(), name, optional.Some(1), optional.None[int](), "")
			if valid != (err == nil) {
				t.Fatalf("NewAsset(%q) err = %v, ValidName = %v", name, err, valid)
			}
			tr, trErr := NewTrait(DefaultTraitRules(), name, optional.Some(2), "")
			if valid != (trErr == nil) {
				t.Fatalf("NewTrait(%q) err = %v, ValidName = %v", name, trErr, valid)
			}
			if !valid {
				return
			}

			variants := []Asset{a}
			if full, err := NewAsset(DefaultAssetRules(), name, optional.Some(3), optional.Some(4), "worn"); err == nil {
				variants = append(variants, full)
			} else {
				t.Fatalf("NewAsset with level and description: %v", err)
			}
			for _, v := range variants {
				back, err := Of(v.String())
				if err != nil {
					t.Fatalf("Of(%q): %v", v.String(), err)
				}
				if back != v {
					t.Fatalf("round trip of %q = %+v, want %+v", v.String(), back, v)
				}
			}

			for _, v := range []Trait{tr, tr.Stacked(0)} {
				back, err := OfTrait(v.String())
				if err != nil {
					t.Fatalf("OfTrait(%q): %v", v.String(), err)
				}
				if back != v {
					t.Fatalf("round trip of %q = %+v, want %+v", v.String(), back, v)
				}
			}
			bare, err := NewTrait(DefaultTraitRules(), name, optional.None[int](), "")
			if err != nil {
				t.Fatalf("NewTrait without level: %v", err)
			}
			if back, err := OfTrait(bare.String()); err != nil || back != bare {
				t.Fatalf("round trip of %q = %+v, %v", bare.String(), back, err)
			}
		})
	}
}
