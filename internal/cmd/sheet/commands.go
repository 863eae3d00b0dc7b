package sheet

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
	"github.com/louisbranch/traitsheet/internal/services/sheet/storage/sqlite"
)

// optionalInt is a flag that stays absent unless set.
type optionalInt struct {
	value optional.Value[int]
}

func (f *optionalInt) String() string {
	if f == nil {
		return ""
	}
	if v, ok := f.value.Get(); ok {
		return strconv.Itoa(v)
	}
	return ""
}

func (f *optionalInt) Set(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	f.value = optional.Some(v)
	return nil
}

// optionalInt64 is optionalInt for identifiers.
type optionalInt64 struct {
	value optional.Value[int64]
}

func (f *optionalInt64) String() string {
	if f == nil {
		return ""
	}
	if v, ok := f.value.Get(); ok {
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func (f *optionalInt64) Set(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	f.value = optional.Some(v)
	return nil
}

// runParse walks the input with the notation parser and prints every piece it
// recognizes until the input is consumed.
func runParse(_ context.Context, _ Config, args []string, out io.Writer) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("parse: notation is required")
	}
	n := notation.Default()
	cur := notation.NewCursor(0)
	for cur.Index < len(text) {
		v, ok := n.ParseObject(text, cur)
		if !ok {
			if cur.ErrorIndex == 0 {
				if _, err := notation.Of(text); err != nil {
					return fmt.Errorf("parse: %w", err)
				}
			}
			return fmt.Errorf("parse: unrecognized notation at offset %d: %q", cur.ErrorIndex, text[cur.ErrorIndex:])
		}
		writeValue(out, v)
	}
	return nil
}

func writeValue(out io.Writer, v notation.Value) {
	switch v := v.(type) {
	case notation.QualityValue:
		fmt.Fprintf(out, "quality: %d\n", v.Quality)
	case notation.LevelValue:
		fmt.Fprintf(out, "level: %d\n", v.Level)
	case notation.DescriptionValue:
		fmt.Fprintf(out, "description: %s\n", v.Text)
	case notation.NameValue:
		fmt.Fprintf(out, "name: %s\n", v.Name)
	case notation.AssetValue:
		a := v.Asset
		fmt.Fprintf(out, "name: %s\n", a.Name())
		if q, ok := a.Quality().Get(); ok {
			fmt.Fprintf(out, "quality: %d\n", q)
		}
		if lv, ok := a.Level().Get(); ok {
			fmt.Fprintf(out, "level: %d\n", lv)
		}
		if d := a.Description(); d != "" {
			fmt.Fprintf(out, "description: %s\n", d)
		}
	}
}

func runFormat(_ context.Context, _ Config, args []string, out io.Writer) error {
	fs := newFlagSet("format")
	name := fs.String("name", "", "asset name")
	description := fs.String("description", "", "asset description")
	var quality, level optionalInt
	fs.Var(&quality, "quality", "asset quality")
	fs.Var(&level, "level", "asset level")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	n := notation.Default()
	a, err := notation.NewAsset(n.Rules(), *name, quality.value, level.value, *description)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	rendered, err := n.FormatString(notation.AssetValue{Asset: a})
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	fmt.Fprintln(out, rendered)
	return nil
}

func runNew(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("new")
	name := fs.String("name", "", "character name")
	var guild, owner optionalInt64
	fs.Var(&guild, "guild", "guild id")
	fs.Var(&owner, "owner", "owner id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("new: %w", err)
	}
	schemas, err := rules.LoadSchemas(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("new: %w", err)
	}
	opts := []character.Option{character.WithSchemas(schemas)}
	if g, ok := guild.value.Get(); ok {
		opts = append(opts, character.WithGuildID(g))
	}
	if o, ok := owner.value.Get(); ok {
		opts = append(opts, character.WithOwnerID(o))
	}
	c, err := character.New(*name, opts...)
	if err != nil {
		return fmt.Errorf("new: %w", err)
	}
	return withStore(cfg, func(store *sqlite.Store) error {
		if err := store.PutCharacter(ctx, c); err != nil {
			return fmt.Errorf("new: %w", err)
		}
		log.Printf("created character %s", c.ID())
		fmt.Fprintln(out, c.ID())
		return nil
	})
}

func runList(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("list")
	var guild optionalInt64
	fs.Var(&guild, "guild", "only list characters of this guild")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return withStore(cfg, func(store *sqlite.Store) error {
		summaries, err := store.ListCharacters(ctx, guild.value)
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, s := range summaries {
			fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Name)
		}
		return nil
	})
}

func runShow(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("show")
	id := fs.String("id", "", "character id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return withStore(cfg, func(store *sqlite.Store) error {
		c, err := store.GetCharacter(ctx, *id)
		if err != nil {
			return fmt.Errorf("show: %w", err)
		}
		writeSheet(out, c)
		return nil
	})
}

// writeSheet prints the sheet. Headings are styled only when out is a
// terminal.
func writeSheet(out io.Writer, c *character.Character) {
	renderer := lipgloss.NewRenderer(out)
	title := renderer.NewStyle().Bold(true)
	heading := renderer.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	schemas := c.Schemas()
	fmt.Fprintf(out, "%s (%s)\n", title.Render(c.Name()), c.ID())
	if g, ok := c.GuildID().Get(); ok {
		fmt.Fprintf(out, "guild: %d\n", g)
	}
	if o, ok := c.OwnerID().Get(); ok {
		fmt.Fprintf(out, "owner: %d\n", o)
	}

	fmt.Fprintln(out, heading.Render("skills:"))
	for term, v := range c.Skills() {
		fmt.Fprintf(out, "  %s %d\n", term, v)
	}
	fmt.Fprintf(out, "  total %d/%d\n", c.SkillTotal(), schemas.Skills.Pool)

	fmt.Fprintln(out, heading.Render("attributes:"))
	for term, v := range c.Attributes() {
		if s, ok := c.DriveStatement(term).Get(); ok {
			fmt.Fprintf(out, "  %s %d: %s\n", term, v, s)
			continue
		}
		fmt.Fprintf(out, "  %s %d\n", term, v)
	}
	fmt.Fprintf(out, "  total %d/%d\n", c.AttributeTotal(), schemas.Attributes.Pool)

	if talents := c.Talents(); len(talents) > 0 {
		fmt.Fprintln(out, heading.Render("talents:"))
		for _, t := range talents {
			if t.Description == "" {
				fmt.Fprintf(out, "  %s\n", t.Name)
				continue
			}
			fmt.Fprintf(out, "  %s: %s\n", t.Name, t.Description)
		}
	}
	if traits := c.Traits(); len(traits) > 0 {
		fmt.Fprintln(out, heading.Render("traits:"))
		for _, t := range traits {
			fmt.Fprintf(out, "  %s\n", t)
		}
	}
	if assets := c.Assets(); len(assets) > 0 {
		fmt.Fprintln(out, heading.Render("assets:"))
		for _, a := range assets {
			fmt.Fprintf(out, "  %s\n", a)
		}
	}
}

func runSet(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("set")
	id := fs.String("id", "", "character id")
	kind := fs.String("kind", "", "skill, attribute or statement")
	term := fs.String("term", "", "skill or attribute name")
	value := fs.String("value", "", "rating, or statement text")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return updateCharacter(ctx, cfg, *id, func(c *character.Character) error {
		switch strings.ToLower(*kind) {
		case "skill", "attribute":
			rating, err := strconv.Atoi(strings.TrimSpace(*value))
			if err != nil {
				return fmt.Errorf("set: rating %q is not a number", *value)
			}
			if strings.EqualFold(*kind, "skill") {
				return c.SetSkillValue(*term, rating)
			}
			return c.SetAttributeValue(*term, rating)
		case "statement":
			return c.SetDriveStatement(*term, *value)
		default:
			return fmt.Errorf("set: unknown kind %q", *kind)
		}
	}, out)
}

func runAddAsset(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("add-asset")
	id := fs.String("id", "", "character id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-asset: %w", err)
	}
	a, err := notation.Of(strings.Join(fs.Args(), " "))
	if err != nil {
		return fmt.Errorf("add-asset: %w", err)
	}
	return updateCharacter(ctx, cfg, *id, func(c *character.Character) error {
		return c.AddAsset(a)
	}, out)
}

func runAddTrait(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("add-trait")
	id := fs.String("id", "", "character id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-trait: %w", err)
	}
	t, err := notation.OfTrait(strings.Join(fs.Args(), " "))
	if err != nil {
		return fmt.Errorf("add-trait: %w", err)
	}
	return updateCharacter(ctx, cfg, *id, func(c *character.Character) error {
		return c.AddTrait(t)
	}, out)
}

func runAddTalent(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("add-talent")
	id := fs.String("id", "", "character id")
	name := fs.String("name", "", "talent name")
	description := fs.String("description", "", "talent description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-talent: %w", err)
	}
	return updateCharacter(ctx, cfg, *id, func(c *character.Character) error {
		return c.AddTalent(character.Talent{Name: *name, Description: *description})
	}, out)
}

func runRemove(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("remove")
	id := fs.String("id", "", "character id")
	kind := fs.String("kind", "", "talent, trait or asset")
	name := fs.String("name", "", "entry name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return updateCharacter(ctx, cfg, *id, func(c *character.Character) error {
		switch strings.ToLower(*kind) {
		case "talent":
			return c.RemoveTalent(*name)
		case "trait":
			return c.RemoveTrait(*name)
		case "asset":
			return c.RemoveAsset(*name)
		default:
			return fmt.Errorf("remove: unknown kind %q", *kind)
		}
	}, out)
}

func runDelete(ctx context.Context, cfg Config, args []string, _ io.Writer) error {
	fs := newFlagSet("delete")
	id := fs.String("id", "", "character id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return withStore(cfg, func(store *sqlite.Store) error {
		if err := store.DeleteCharacter(ctx, *id); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		log.Printf("deleted character %s", *id)
		return nil
	})
}

// updateCharacter loads a character, applies mutate and stores the result.
// Nothing is stored when mutate fails.
func updateCharacter(ctx context.Context, cfg Config, id string, mutate func(*character.Character) error, out io.Writer) error {
	return withStore(cfg, func(store *sqlite.Store) error {
		c, err := store.GetCharacter(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(c); err != nil {
			return err
		}
		if err := store.PutCharacter(ctx, c); err != nil {
			return err
		}
		writeSheet(out, c)
		return nil
	})
}

func withStore(cfg Config, fn func(*sqlite.Store) error) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open character store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close character store: %v", err)
		}
	}()
	return fn(store)
}
