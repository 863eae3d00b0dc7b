package character

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/termmap"
)

var (
	// ErrInvalidCharacter indicates an unusable name, id or schema.
	ErrInvalidCharacter = apperrors.New(apperrors.CodeSheetInvalidCharacter, "invalid character")
	// ErrInvalidSkill indicates an unknown skill or a rating the sheet cannot hold.
	ErrInvalidSkill = apperrors.New(apperrors.CodeSheetInvalidSkill, "invalid skill value")
	// ErrInvalidAttribute indicates an unknown attribute or a rating the sheet cannot hold.
	ErrInvalidAttribute = apperrors.New(apperrors.CodeSheetInvalidAttribute, "invalid attribute value")
	// ErrInvalidStatement indicates a drive statement the attribute cannot carry.
	ErrInvalidStatement = apperrors.New(apperrors.CodeSheetInvalidStatement, "invalid drive statement")
	// ErrInvalidTalent indicates a talent without a usable name.
	ErrInvalidTalent = apperrors.New(apperrors.CodeSheetInvalidTalent, "invalid talent")
	// ErrDuplicateEntry indicates a talent, trait or asset name already on the sheet.
	ErrDuplicateEntry = apperrors.New(apperrors.CodeSheetDuplicateEntry, "duplicate entry")
	// ErrEntryNotFound indicates a talent, trait or asset name missing from the sheet.
	ErrEntryNotFound = apperrors.New(apperrors.CodeSheetEntryNotFound, "entry not found")
)

// Character is one character sheet.
type Character struct {
	id      string
	name    string
	guildID optional.Value[int64]
	ownerID optional.Value[int64]
	schemas rules.Schemas

	skills     *termmap.Map[string, int]
	attributes *termmap.Map[string, int]
	statements *termmap.Map[string, string]

	talents entrySet[Talent]
	traits  entrySet[notation.Trait]
	assets  entrySet[notation.Asset]
}

// Option configures a new character.
type Option func(*Character)

// WithID sets the storage identifier.
func WithID(id string) Option {
	return func(c *Character) { c.id = id }
}

// WithGuildID records the guild the character belongs to.
func WithGuildID(id int64) Option {
	return func(c *Character) { c.guildID = optional.Some(id) }
}

// WithOwnerID records the user that owns the character.
func WithOwnerID(id int64) Option {
	return func(c *Character) { c.ownerID = optional.Some(id) }
}

// WithSchemas replaces the default skill and attribute schemas. The schemas
// are fixed for the character's lifetime.
func WithSchemas(s rules.Schemas) Option {
	return func(c *Character) {
		c.schemas = rules.Schemas{Skills: s.Skills.Clone(), Attributes: s.Attributes.Clone()}
	}
}

// New creates an empty character sheet.
func New(name string, opts ...Option) (*Character, error) {
	c := &Character{
		name:    strings.TrimSpace(rules.NormalizeText(name)),
		schemas: rules.DefaultSchemas(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" || strings.ContainsAny(c.name, "\r\n") {
		return nil, apperrors.WithMetadata(
			apperrors.CodeSheetInvalidCharacter,
			fmt.Sprintf("invalid character name: %q", name),
			map[string]string{"Name": name},
		)
	}
	if id, ok := c.guildID.Get(); ok && id < 0 {
		return nil, apperrors.New(apperrors.CodeSheetInvalidCharacter, fmt.Sprintf("guild id %d is negative", id))
	}
	if id, ok := c.ownerID.Get(); ok && id < 0 {
		return nil, apperrors.New(apperrors.CodeSheetInvalidCharacter, fmt.Sprintf("owner id %d is negative", id))
	}
	if err := c.schemas.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSheetInvalidCharacter, "invalid character schema", err)
	}

	c.skills = termmap.New(c.schemas.Skills.Compare, ratingPredicates(c.schemas.Skills, nil))
	c.attributes = termmap.New(c.schemas.Attributes.Compare, ratingPredicates(c.schemas.Attributes, c.keepsStatement))
	c.statements = termmap.New(c.schemas.Attributes.Compare, termmap.Predicates[string, string]{
		Key:   c.schemas.Attributes.Has,
		Value: rules.ValidStatement,
		Joint: func(_ termmap.View[string, string], term string, _ string) bool {
			return c.canHoldStatement(term)
		},
	})
	return c, nil
}

// ID returns the storage identifier, empty until the character is stored.
func (c *Character) ID() string { return c.id }

// SetID records the storage identifier once it has been assigned.
func (c *Character) SetID(id string) { c.id = id }

// Name returns the character name.
func (c *Character) Name() string { return c.name }

// GuildID returns the guild the character belongs to, if any.
func (c *Character) GuildID() optional.Value[int64] { return c.guildID }

// OwnerID returns the owning user, if any.
func (c *Character) OwnerID() optional.Value[int64] { return c.ownerID }

// Schemas returns a copy of the schemas the sheet was created with.
func (c *Character) Schemas() rules.Schemas {
	return rules.Schemas{Skills: c.schemas.Skills.Clone(), Attributes: c.schemas.Attributes.Clone()}
}

// ratingPredicates bounds each rating by the schema range and the total by
// its pool. extra, when set, adds a joint rule on top.
func ratingPredicates(s rules.Schema, extra func(term string, value int) bool) termmap.Predicates[string, int] {
	return termmap.Predicates[string, int]{
		Key: s.Has,
		Value: func(v int) bool {
			return rules.InRange(v, s.Min, s.Max)
		},
		Joint: func(view termmap.View[string, int], term string, value int) bool {
			if !rules.WithinPool(termmap.SumWith(view, term, value), s.Pool) {
				return false
			}
			return extra == nil || extra(term, value)
		},
	}
}
