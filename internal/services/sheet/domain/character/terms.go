package character

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/termmap"
)

// SkillValue returns the rating of a skill, absent when unknown or unset.
func (c *Character) SkillValue(term string) optional.Value[int] {
	return lookup(c.skills, c.schemas.Skills, term)
}

// SetSkillValue rates a skill. The rating must be within the skill range and
// keep the skill total within the pool.
func (c *Character) SetSkillValue(term string, value int) error {
	return setRating(c.skills, c.schemas.Skills, apperrors.CodeSheetInvalidSkill, "skill", term, value)
}

// SkillTotal sums every skill rating.
func (c *Character) SkillTotal() int {
	return termmap.Sum[string, int](c.skills)
}

// Skills iterates skill ratings in schema order.
func (c *Character) Skills() iter.Seq2[string, int] {
	return c.skills.All()
}

// AttributeValue returns the rating of an attribute, absent when unknown or
// unset.
func (c *Character) AttributeValue(term string) optional.Value[int] {
	return lookup(c.attributes, c.schemas.Attributes, term)
}

// SetAttributeValue rates an attribute. Besides the range and pool rules, an
// attribute that carries a drive statement cannot drop below the statement
// threshold.
func (c *Character) SetAttributeValue(term string, value int) error {
	return setRating(c.attributes, c.schemas.Attributes, apperrors.CodeSheetInvalidAttribute, "attribute", term, value)
}

// AttributeTotal sums every attribute rating.
func (c *Character) AttributeTotal() int {
	return termmap.Sum[string, int](c.attributes)
}

// Attributes iterates attribute ratings in schema order.
func (c *Character) Attributes() iter.Seq2[string, int] {
	return c.attributes.All()
}

// DriveStatement returns the statement attached to an attribute.
func (c *Character) DriveStatement(term string) optional.Value[string] {
	return lookup(c.statements, c.schemas.Attributes, term)
}

// SetDriveStatement attaches a statement to an attribute rated at least the
// statement threshold. A blank statement removes the current one.
func (c *Character) SetDriveStatement(term, statement string) error {
	canonical, err := resolve(c.schemas.Attributes, apperrors.CodeSheetInvalidStatement, "attribute", term)
	if err != nil {
		return err
	}
	statement = strings.TrimSpace(rules.NormalizeText(statement))
	if statement == "" {
		c.statements.Delete(canonical)
		return nil
	}
	if err := c.statements.Set(canonical, statement); err != nil {
		md := map[string]string{"Term": canonical}
		message := fmt.Sprintf("invalid drive statement for %s", canonical)
		var rejected *termmap.RejectedError[string, string]
		if errors.As(err, &rejected) && rejected.Violation == termmap.ViolationJoint {
			md["Threshold"] = strconv.Itoa(c.schemas.Attributes.StatementThreshold)
			message = fmt.Sprintf("%s requires a rating of at least %d to carry a drive statement",
				canonical, c.schemas.Attributes.StatementThreshold)
		}
		return apperrors.WrapWithMetadata(apperrors.CodeSheetInvalidStatement, message, md, err)
	}
	return nil
}

// DriveStatements iterates drive statements in attribute order.
func (c *Character) DriveStatements() iter.Seq2[string, string] {
	return c.statements.All()
}

// canHoldStatement reports whether term is currently rated high enough to
// carry a drive statement.
func (c *Character) canHoldStatement(term string) bool {
	threshold := c.schemas.Attributes.StatementThreshold
	if threshold <= 0 {
		return false
	}
	value, ok := c.attributes.Get(term)
	return ok && value >= threshold
}

// keepsStatement is the attribute joint rule: lowering a drive that carries
// a statement must keep it at the threshold.
func (c *Character) keepsStatement(term string, value int) bool {
	if _, ok := c.statements.Get(term); !ok {
		return true
	}
	return value >= c.schemas.Attributes.StatementThreshold
}

func lookup[V any](m *termmap.Map[string, V], s rules.Schema, term string) optional.Value[V] {
	canonical, ok := s.Canonical(term)
	if !ok {
		return optional.None[V]()
	}
	v, ok := m.Get(canonical)
	if !ok {
		return optional.None[V]()
	}
	return optional.Some(v)
}

// resolve maps a user-supplied term to its schema spelling, suggesting the
// closest term when it is unknown.
func resolve(s rules.Schema, code apperrors.Code, family, term string) (string, error) {
	canonical, ok := s.Canonical(term)
	if ok {
		return canonical, nil
	}
	md := map[string]string{"Term": term}
	message := fmt.Sprintf("unknown %s %q", family, term)
	if suggestion := s.Suggest(term); suggestion != "" {
		md["Suggestion"] = suggestion
		message = fmt.Sprintf("%s, did you mean %q?", message, suggestion)
	}
	return "", apperrors.WithMetadata(code, message, md)
}

func setRating(m *termmap.Map[string, int], s rules.Schema, code apperrors.Code, family, term string, value int) error {
	canonical, err := resolve(s, code, family, term)
	if err != nil {
		return err
	}
	err = m.Set(canonical, value)
	if err == nil {
		return nil
	}
	md := map[string]string{"Term": canonical, "Value": strconv.Itoa(value)}
	message := fmt.Sprintf("invalid %s value %d for %s", family, value, canonical)
	var rejected *termmap.RejectedError[string, int]
	if errors.As(err, &rejected) {
		switch rejected.Violation {
		case termmap.ViolationValue:
			message = fmt.Sprintf("%s %s must be between %d and %d", family, canonical, s.Min, s.Max)
		case termmap.ViolationJoint:
			total := termmap.SumWith[string, int](m, canonical, value)
			md["Pool"] = strconv.Itoa(s.Pool)
			if total <= s.Pool {
				message = fmt.Sprintf("%s %s carries a drive statement and cannot drop below %d",
					family, canonical, s.StatementThreshold)
			} else {
				message = fmt.Sprintf("%s total %d would exceed the pool of %d", family, total, s.Pool)
			}
		}
	}
	return apperrors.WrapWithMetadata(code, message, md, err)
}
