package notation

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func mustLeaf(t *testing.T, name, pattern string) *Field {
	t.Helper()
	f, err := NewLeaf(name, pattern)
	if err != nil {
		t.Fatalf("NewLeaf(%q): %v", name, err)
	}
	return f
}

func TestSequenceDerivesUniqueSlots(t *testing.T) {
	x := mustLeaf(t, "x", `\d+`)
	sep := mustLeaf(t, "sep", `-`)
	pair, err := NewSequence("pair", x, sep, x)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	if got, want := pair.Slots(), []string{"x", "sep", "x_1"}; !slices.Equal(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}

	c, ok := pair.Match("12-34")
	if !ok {
		t.Fatal("expected match")
	}
	if got := c.Slot("x").Text; got != "12" {
		t.Fatalf("x = %q, want 12", got)
	}
	if got := c.Slot("x_1").Text; got != "34" {
		t.Fatalf("x_1 = %q, want 34", got)
	}

	cur := NewCursor(0)
	c, ok = pair.Parse("12-34", cur)
	if !ok || cur.Index != 5 || cur.ErrorIndex != -1 {
		t.Fatalf("Parse = %v, cursor %+v", ok, cur)
	}
	if c.Slot("x").Text != "12" || c.Slot("x_1").Text != "34" {
		t.Fatalf("Parse slots = %+v", c.Slots)
	}
}

func TestSlotSuffixCountsOnlySameNamedSiblings(t *testing.T) {
	a := mustLeaf(t, "a", `a`)
	b := mustLeaf(t, "b", `b`)
	seq, err := NewSequence("s", a, b, a, b, a)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	want := []string{"a", "b", "a_1", "b_1", "a_2"}
	for i, slot := range want {
		if got := seq.Slot(i); got != slot {
			t.Errorf("Slot(%d) = %q, want %q", i, got, slot)
		}
	}
}

func TestFieldConstructionErrors(t *testing.T) {
	x := mustLeaf(t, "x", `x`)
	x1 := mustLeaf(t, "x_1", `y`)
	digits := mustLeaf(t, "digits", `\d+`)

	tests := []struct {
		name  string
		build func() (*Field, error)
	}{
		{"leaf declares slot", func() (*Field, error) { return NewLeaf("l", `(?P<v>a)`) }},
		{"bad pattern", func() (*Field, error) { return NewLeaf("l", `(`) }},
		{"bad field name", func() (*Field, error) { return NewLeaf("1l", `a`) }},
		{"empty sequence", func() (*Field, error) { return NewSequence("s") }},
		{"nil sub-field", func() (*Field, error) { return NewSequence("s", x, nil) }},
		{"derived slot collides", func() (*Field, error) { return NewSequence("s", x, x1, x) }},
		{"declared slot missing from pattern", func() (*Field, error) {
			return NewComposite("c", `(?P<a>\d+)`, []string{"b"})
		}},
		{"sub-field without declared slot", func() (*Field, error) {
			return NewComposite("c", `(?P<a>\d+)`, []string{"a"}, digits)
		}},
		{"slot declared twice", func() (*Field, error) {
			return NewComposite("c", `(?P<a>\d+)`, []string{"a", "a"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.build()
			if !errors.Is(err, ErrInvalidField) {
				t.Fatalf("expected ErrInvalidField, got field %v err %v", f, err)
			}
		})
	}
}

func TestCompositeParsesSubFieldsFromTheirSlots(t *testing.T) {
	n := mustLeaf(t, "n", `\d+`)
	span, err := NewComposite("span", `(?P<n>\d+)\.\.(?P<n_1>\d+)`, []string{"n", "n_1"}, n, n)
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	cur := NewCursor(2)
	c, ok := span.Parse("> 3..17 rest", cur)
	if !ok {
		t.Fatalf("expected parse at 2, error index %d", cur.ErrorIndex)
	}
	if cur.Index != 7 {
		t.Fatalf("cursor = %d, want 7", cur.Index)
	}
	if c.Text != "3..17" || c.Slot("n").Text != "3" || c.Slot("n_1").Text != "17" {
		t.Fatalf("capture = %+v", c)
	}
}

func TestParseFailureCommitsNothing(t *testing.T) {
	lvl := mustLeaf(t, "lvl", `\(\d+\)`)
	cur := NewCursor(3)
	if _, ok := lvl.Parse("abc(x)", cur); ok {
		t.Fatal("expected failure")
	}
	if cur.Index != 3 || cur.ErrorIndex != 3 {
		t.Fatalf("cursor = %+v, want index 3 error 3", cur)
	}

	if _, ok := lvl.Parse("abc", NewCursor(10)); ok {
		t.Fatal("cursor past the end must fail")
	}
}

func TestSequenceOptionalAndRequiredFailures(t *testing.T) {
	a := mustLeaf(t, "a", `a`)
	b := mustLeaf(t, "b", `b`)
	c := mustLeaf(t, "c", `c`)
	seq, err := NewSequence("s", a, Optional(b), c)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}

	cur := NewCursor(0)
	got, ok := seq.Parse("ac", cur)
	if !ok || cur.Index != 2 || cur.ErrorIndex != -1 {
		t.Fatalf("Parse(ac) = %v, cursor %+v", ok, cur)
	}
	if got.Slot("b").Present {
		t.Fatal("skipped optional slot must be absent")
	}
	if got.Text != "ac" {
		t.Fatalf("text = %q", got.Text)
	}

	cur = NewCursor(0)
	if _, ok := seq.Parse("abx", cur); ok {
		t.Fatal("expected failure on missing c")
	}
	if cur.Index != 0 || cur.ErrorIndex != 2 {
		t.Fatalf("cursor = %+v, want index 0 error 2", cur)
	}

	if _, ok := seq.Match("abcd"); ok {
		t.Fatal("Match must reject trailing text")
	}
	if got, ok := seq.Match("abc"); !ok || !got.Slot("b").Present {
		t.Fatalf("Match(abc) = %+v, %v", got, ok)
	}
}

func TestFormatRebuildsParsedText(t *testing.T) {
	g, err := NewAssetGrammar(DefaultAssetRules())
	if err != nil {
		t.Fatalf("NewAssetGrammar: %v", err)
	}
	for _, text := range []string{"Lasgun(Q2)(3): military-grade", "Shield(Q0)", "Stillsuit(Q3): patched;;"} {
		c, ok := g.Field().Match(text)
		if !ok {
			t.Fatalf("Match(%q) failed", text)
		}
		if got := g.Field().Format(c); got != text {
			t.Errorf("Format = %q, want %q", got, text)
		}
	}
}

func TestFieldsAreSafeForConcurrentUse(t *testing.T) {
	g, err := NewAssetGrammar(DefaultAssetRules())
	if err != nil {
		t.Fatalf("NewAssetGrammar: %v", err)
	}
	f := g.Field()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if f.Slot(1) != "quality" {
					t.Error("unexpected slot name")
					return
				}
				if _, ok := f.Parse("Lasgun(Q2)(3)", NewCursor(0)); !ok {
					t.Error("concurrent parse failed")
					return
				}
			}
		}()
	}
	wg.Wait()
}
