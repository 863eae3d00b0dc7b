package notation

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"slices"
	"strings"
)

// ErrInvalidField is wrapped by every field construction failure.
var ErrInvalidField = errors.New("invalid field definition")

var slotNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Capture is what a field recognized. Composite captures carry one entry per
// slot; an absent slot is the zero Capture.
type Capture struct {
	Text    string
	Present bool
	Slots   map[string]Capture
}

// Slot returns the capture stored under name, or an absent Capture.
func (c Capture) Slot(name string) Capture {
	return c.Slots[name]
}

// Cursor tracks a parse position. ErrorIndex is -1 unless the last attempt
// failed, in which case it holds the position the attempt started from.
type Cursor struct {
	Index      int
	ErrorIndex int
}

// NewCursor returns a cursor at index with no error recorded.
func NewCursor(index int) *Cursor {
	return &Cursor{Index: index, ErrorIndex: -1}
}

// Field is a named recognition unit.
//
// A leaf owns a pattern and has no sub-fields. An explicit composite owns a
// pattern plus a declared slot set that covers every sub-field. A sequence has
// no pattern of its own: its pattern is the concatenation of its sub-fields'
// patterns, each wrapped in a slot named after the sub-field.
//
// Slot names are derived once at construction: sub-field i gets its field
// name, suffixed "_N" where N counts the preceding siblings with the same
// name. Fields never change after construction and are safe for concurrent
// use.
type Field struct {
	name     string
	optional bool
	explicit bool
	pattern  string
	embedded string
	prefix   *regexp.Regexp
	full     *regexp.Regexp

	// harvested lists the slots read out of a match, with their group
	// indexes in prefix/full.
	harvested []string
	groups    []int

	fields []*Field
	slots  []string
}

// NewLeaf returns a field recognized by pattern alone. Leaf patterns may use
// unnamed groups but must not declare slots.
func NewLeaf(name, pattern string) (*Field, error) {
	if err := checkFieldName(name); err != nil {
		return nil, err
	}
	f := &Field{name: name, explicit: true, pattern: pattern}
	if err := f.compile(); err != nil {
		return nil, err
	}
	for _, group := range f.prefix.SubexpNames() {
		if group != "" {
			return nil, fmt.Errorf("%w: leaf %q declares slot %q", ErrInvalidField, name, group)
		}
	}
	return f, nil
}

// NewComposite returns a field with its own pattern and declared slots. Every
// sub-field must have its derived slot among the declared ones; after a match
// each present sub-field slot is matched again by that sub-field.
func NewComposite(name, pattern string, slots []string, fields ...*Field) (*Field, error) {
	if err := checkFieldName(name); err != nil {
		return nil, err
	}
	derived, err := deriveSlots(name, fields)
	if err != nil {
		return nil, err
	}
	f := &Field{
		name:     name,
		explicit: true,
		pattern:  pattern,
		fields:   slices.Clone(fields),
		slots:    derived,
	}
	if err := f.compile(); err != nil {
		return nil, err
	}

	groups := make(map[string]int)
	for i, group := range f.prefix.SubexpNames() {
		if group == "" {
			continue
		}
		if _, dup := groups[group]; dup {
			return nil, fmt.Errorf("%w: %q declares slot %q twice", ErrInvalidField, name, group)
		}
		groups[group] = i
	}
	for _, slot := range slots {
		index, ok := groups[slot]
		if !ok {
			return nil, fmt.Errorf("%w: %q pattern has no slot %q", ErrInvalidField, name, slot)
		}
		if slices.Contains(f.harvested, slot) {
			return nil, fmt.Errorf("%w: %q lists slot %q twice", ErrInvalidField, name, slot)
		}
		f.harvested = append(f.harvested, slot)
		f.groups = append(f.groups, index)
	}
	for i, slot := range derived {
		if !slices.Contains(f.harvested, slot) {
			return nil, fmt.Errorf("%w: %q has no declared slot for sub-field %d (%s)", ErrInvalidField, name, i, slot)
		}
	}
	return f, nil
}

// NewSequence returns a field whose pattern is derived from its sub-fields.
// Parsing walks the sub-fields in order from a shared cursor.
func NewSequence(name string, fields ...*Field) (*Field, error) {
	if err := checkFieldName(name); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: sequence %q has no sub-fields", ErrInvalidField, name)
	}
	derived, err := deriveSlots(name, fields)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for i, sub := range fields {
		b.WriteString("(?P<")
		b.WriteString(derived[i])
		b.WriteString(">")
		b.WriteString(sub.embedded)
		b.WriteString(")")
		if sub.optional {
			b.WriteString("?")
		}
	}
	f := &Field{
		name:    name,
		pattern: b.String(),
		fields:  slices.Clone(fields),
		slots:   derived,
	}
	if err := f.compile(); err != nil {
		return nil, err
	}
	f.harvested = slices.Clone(derived)
	for _, slot := range derived {
		f.groups = append(f.groups, f.prefix.SubexpIndex(slot))
	}
	return f, nil
}

// Optional returns a copy of f that a sequence may skip when it does not
// match.
func Optional(f *Field) *Field {
	if f == nil {
		return nil
	}
	out := *f
	out.optional = true
	return &out
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// IsOptional reports whether a sequence may skip this field.
func (f *Field) IsOptional() bool { return f.optional }

// Pattern returns the field's pattern, derived for sequences.
func (f *Field) Pattern() string { return f.pattern }

// Fields returns the sub-fields in order.
func (f *Field) Fields() []*Field { return slices.Clone(f.fields) }

// Slots returns the slot name of each sub-field, aligned with Fields.
func (f *Field) Slots() []string { return slices.Clone(f.slots) }

// Slot returns the slot name of sub-field i.
func (f *Field) Slot(i int) string { return f.slots[i] }

// Parse recognizes f at cur.Index. On success the cursor advances past the
// match. On failure the cursor is left in place and ErrorIndex is set to the
// position where the failing attempt started; nothing else is committed.
func (f *Field) Parse(source string, cur *Cursor) (Capture, bool) {
	start := cur.Index
	if start < 0 || start > len(source) {
		cur.ErrorIndex = start
		return Capture{}, false
	}
	if f.explicit {
		rest := source[start:]
		loc := f.prefix.FindStringSubmatchIndex(rest)
		if loc == nil {
			cur.ErrorIndex = start
			return Capture{}, false
		}
		capture, ok := f.harvest(rest, loc)
		if !ok {
			cur.ErrorIndex = start
			return Capture{}, false
		}
		cur.Index = start + loc[1]
		return capture, true
	}

	capture := Capture{Present: true, Slots: make(map[string]Capture, len(f.fields))}
	for i, sub := range f.fields {
		at, previousError := cur.Index, cur.ErrorIndex
		subCapture, ok := sub.Parse(source, cur)
		if !ok {
			if sub.optional {
				cur.Index, cur.ErrorIndex = at, previousError
				capture.Slots[f.slots[i]] = Capture{}
				continue
			}
			cur.Index = start
			return Capture{}, false
		}
		capture.Slots[f.slots[i]] = subCapture
	}
	capture.Text = source[start:cur.Index]
	return capture, true
}

// Match recognizes f against the whole of source. Partial matches fail.
func (f *Field) Match(source string) (Capture, bool) {
	loc := f.full.FindStringSubmatchIndex(source)
	if loc == nil {
		return Capture{}, false
	}
	return f.harvest(source, loc)
}

// Format renders a capture back to text: leaves and explicit composites
// return their captured text, sequences concatenate their present slots.
func (f *Field) Format(c Capture) string {
	if !c.Present {
		return ""
	}
	if f.explicit {
		return c.Text
	}
	var b strings.Builder
	for i, sub := range f.fields {
		if slot := c.Slot(f.slots[i]); slot.Present {
			b.WriteString(sub.Format(slot))
		}
	}
	return b.String()
}

func (f *Field) harvest(text string, loc []int) (Capture, bool) {
	capture := Capture{Text: text[loc[0]:loc[1]], Present: true}
	if len(f.harvested) == 0 {
		return capture, true
	}
	capture.Slots = make(map[string]Capture, len(f.harvested))
	for i, slot := range f.harvested {
		g := f.groups[i]
		if loc[2*g] < 0 {
			capture.Slots[slot] = Capture{}
			continue
		}
		capture.Slots[slot] = Capture{Text: text[loc[2*g]:loc[2*g+1]], Present: true}
	}
	for i, sub := range f.fields {
		slot := capture.Slots[f.slots[i]]
		if !slot.Present {
			continue
		}
		subCapture, ok := sub.Match(slot.Text)
		if !ok {
			return Capture{}, false
		}
		capture.Slots[f.slots[i]] = subCapture
	}
	return capture, true
}

func (f *Field) compile() error {
	prefix, err := regexp.Compile(`\A(?:` + f.pattern + `)`)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidField, f.name, err)
	}
	full, err := regexp.Compile(`\A(?:` + f.pattern + `)\z`)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidField, f.name, err)
	}
	embedded, err := stripSlots(f.pattern)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidField, f.name, err)
	}
	f.prefix, f.full, f.embedded = prefix, full, embedded
	return nil
}

func checkFieldName(name string) error {
	if !slotNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q is not a legal field name", ErrInvalidField, name)
	}
	return nil
}

// deriveSlots names each sub-field's slot and rejects definitions that cannot
// produce a unique, legal name for every one.
func deriveSlots(owner string, fields []*Field) ([]string, error) {
	counts := make(map[string]int, len(fields))
	seen := make(map[string]struct{}, len(fields))
	slots := make([]string, len(fields))
	for i, sub := range fields {
		if sub == nil {
			return nil, fmt.Errorf("%w: %q sub-field %d is nil", ErrInvalidField, owner, i)
		}
		slot := sub.name
		if n := counts[sub.name]; n > 0 {
			slot = fmt.Sprintf("%s_%d", sub.name, n)
		}
		counts[sub.name]++
		if !slotNamePattern.MatchString(slot) {
			return nil, fmt.Errorf("%w: %q slot %q is not legal", ErrInvalidField, owner, slot)
		}
		if _, dup := seen[slot]; dup {
			return nil, fmt.Errorf("%w: %q slot %q is not unique", ErrInvalidField, owner, slot)
		}
		seen[slot] = struct{}{}
		slots[i] = slot
	}
	return slots, nil
}

// stripSlots rewrites pattern with every capturing group made non-capturing,
// so it can be embedded in a parent without leaking its slots.
func stripSlots(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	return uncapture(re).String(), nil
}

func uncapture(re *syntax.Regexp) *syntax.Regexp {
	for i, sub := range re.Sub {
		re.Sub[i] = uncapture(sub)
	}
	if re.Op == syntax.OpCapture {
		return re.Sub[0]
	}
	return re
}
