// Package sqlite provides a SQLite-backed character sheet store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/traitsheet/internal/platform/id"
	"github.com/louisbranch/traitsheet/internal/platform/otel"
	sqlitemigrate "github.com/louisbranch/traitsheet/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/rules"
	"github.com/louisbranch/traitsheet/internal/services/sheet/storage"
	"github.com/louisbranch/traitsheet/internal/services/sheet/storage/sqlite/migrations"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	familySkill     = "skill"
	familyAttribute = "attribute"
	familyStatement = "statement"

	kindTalent = "talent"
	kindTrait  = "trait"
	kindAsset  = "asset"
)

// Store persists character sheets in SQLite.
type Store struct {
	sqlDB  *sql.DB
	tracer trace.Tracer
	now    func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite character store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{
		sqlDB:  sqlDB,
		tracer: otel.Tracer("sheet/storage/sqlite"),
		now:    time.Now,
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutCharacter inserts or replaces a character with all of its terms and
// entries. A character without an id receives a new one when the write
// commits.
func (s *Store) PutCharacter(ctx context.Context, c *character.Character) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if c == nil {
		return fmt.Errorf("character is required")
	}
	ctx, span := s.tracer.Start(ctx, "sqlite.PutCharacter")
	defer func() { endSpan(span, err) }()

	characterID := c.ID()
	if characterID == "" {
		if characterID, err = id.NewID(); err != nil {
			return err
		}
	}
	span.SetAttributes(attribute.String("character.id", characterID))

	schemas := c.Schemas()
	encodedSchemas, err := rules.EncodeSchemas(schemas, rules.FormatYAML)
	if err != nil {
		return fmt.Errorf("encode schemas: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put character: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := toMillis(s.now())
	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO characters (id, name, guild_id, owner_id, schemas, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   guild_id = excluded.guild_id,
		   owner_id = excluded.owner_id,
		   schemas = excluded.schemas,
		   updated_at = excluded.updated_at`,
		characterID,
		c.Name(),
		nullInt64(c.GuildID()),
		nullInt64(c.OwnerID()),
		string(encodedSchemas),
		now,
		now,
	); err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	if err = deleteChildren(ctx, tx, characterID); err != nil {
		return err
	}

	for term, rating := range c.Skills() {
		if err = insertTerm(ctx, tx, characterID, familySkill, term, slices.Index(schemas.Skills.Terms, term), rating, ""); err != nil {
			return err
		}
	}
	for term, rating := range c.Attributes() {
		if err = insertTerm(ctx, tx, characterID, familyAttribute, term, slices.Index(schemas.Attributes.Terms, term), rating, ""); err != nil {
			return err
		}
	}
	for term, statement := range c.DriveStatements() {
		if err = insertTerm(ctx, tx, characterID, familyStatement, term, slices.Index(schemas.Attributes.Terms, term), 0, statement); err != nil {
			return err
		}
	}

	for _, talent := range c.Talents() {
		if err = insertEntry(ctx, tx, characterID, kindTalent, talent.Name, talent.Name, talent.Description); err != nil {
			return err
		}
	}
	for _, trait := range c.Traits() {
		if trait.Rules() != notation.DefaultTraitRules() {
			err = fmt.Errorf("trait %q uses custom rules and cannot be stored", trait.Name())
			return err
		}
		if err = insertEntry(ctx, tx, characterID, kindTrait, trait.Name(), trait.String(), ""); err != nil {
			return err
		}
	}
	for _, asset := range c.Assets() {
		if asset.Rules() != notation.DefaultAssetRules() {
			err = fmt.Errorf("asset %q uses custom rules and cannot be stored", asset.Name())
			return err
		}
		if err = insertEntry(ctx, tx, characterID, kindAsset, asset.Name(), asset.String(), ""); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit put character: %w", err)
	}
	if c.ID() == "" {
		c.SetID(characterID)
	}
	return nil
}

// GetCharacter loads a character and replays its terms and entries through
// the sheet's validated setters.
func (s *Store) GetCharacter(ctx context.Context, characterID string) (c *character.Character, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, fmt.Errorf("character id is required")
	}
	ctx, span := s.tracer.Start(ctx, "sqlite.GetCharacter",
		trace.WithAttributes(attribute.String("character.id", characterID)))
	defer func() { endSpan(span, err) }()

	var (
		name           string
		guildID        sql.NullInt64
		ownerID        sql.NullInt64
		encodedSchemas string
	)
	err = s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, guild_id, owner_id, schemas FROM characters WHERE id = ?`,
		characterID,
	).Scan(&name, &guildID, &ownerID, &encodedSchemas)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get character: %w", err)
	}

	schemas, err := rules.DecodeSchemas([]byte(encodedSchemas), rules.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("decode schemas of %s: %w", characterID, err)
	}
	opts := []character.Option{character.WithID(characterID), character.WithSchemas(schemas)}
	if guildID.Valid {
		opts = append(opts, character.WithGuildID(guildID.Int64))
	}
	if ownerID.Valid {
		opts = append(opts, character.WithOwnerID(ownerID.Int64))
	}
	c, err = character.New(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore character %s: %w", characterID, err)
	}
	if err = s.loadTerms(ctx, c); err != nil {
		return nil, err
	}
	if err = s.loadEntries(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCharacters returns character summaries ordered by name.
func (s *Store) ListCharacters(ctx context.Context, guildID optional.Value[int64]) (summaries []storage.CharacterSummary, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ctx, span := s.tracer.Start(ctx, "sqlite.ListCharacters")
	defer func() { endSpan(span, err) }()

	query := `SELECT id, name, guild_id, owner_id, created_at, updated_at FROM characters`
	var args []any
	if g, ok := guildID.Get(); ok {
		query += ` WHERE guild_id = ?`
		args = append(args, g)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			summary              storage.CharacterSummary
			guild, owner         sql.NullInt64
			createdAt, updatedAt int64
		)
		if err = rows.Scan(&summary.ID, &summary.Name, &guild, &owner, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		summary.GuildID = fromNullInt64(guild)
		summary.OwnerID = fromNullInt64(owner)
		summary.CreatedAt = fromMillis(createdAt)
		summary.UpdatedAt = fromMillis(updatedAt)
		summaries = append(summaries, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return summaries, nil
}

// DeleteCharacter removes a character and everything on its sheet.
func (s *Store) DeleteCharacter(ctx context.Context, characterID string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return fmt.Errorf("character id is required")
	}
	ctx, span := s.tracer.Start(ctx, "sqlite.DeleteCharacter",
		trace.WithAttributes(attribute.String("character.id", characterID)))
	defer func() { endSpan(span, err) }()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete character: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = deleteChildren(ctx, tx, characterID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, characterID)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if affected == 0 {
		err = storage.ErrNotFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete character: %w", err)
	}
	return nil
}

func (s *Store) loadTerms(ctx context.Context, c *character.Character) error {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT family, term, rating, statement
		   FROM character_terms
		  WHERE character_id = ?
		  ORDER BY CASE family WHEN 'skill' THEN 0 WHEN 'attribute' THEN 1 ELSE 2 END, ordinal`,
		c.ID(),
	)
	if err != nil {
		return fmt.Errorf("load terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			family, term string
			rating       sql.NullInt64
			statement    sql.NullString
		)
		if err := rows.Scan(&family, &term, &rating, &statement); err != nil {
			return fmt.Errorf("load terms: %w", err)
		}
		switch family {
		case familySkill:
			err = c.SetSkillValue(term, int(rating.Int64))
		case familyAttribute:
			err = c.SetAttributeValue(term, int(rating.Int64))
		case familyStatement:
			err = c.SetDriveStatement(term, statement.String)
		default:
			err = fmt.Errorf("unknown term family %q", family)
		}
		if err != nil {
			return fmt.Errorf("restore %s %s of %s: %w", family, term, c.ID(), err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load terms: %w", err)
	}
	return nil
}

func (s *Store) loadEntries(ctx context.Context, c *character.Character) error {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT kind, notation, description
		   FROM character_entries
		  WHERE character_id = ?
		  ORDER BY kind, name_key`,
		c.ID(),
	)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, text, description string
		if err := rows.Scan(&kind, &text, &description); err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		switch kind {
		case kindTalent:
			err = c.AddTalent(character.Talent{Name: text, Description: description})
		case kindTrait:
			var trait notation.Trait
			if trait, err = notation.OfTrait(text); err == nil {
				err = c.AddTrait(trait)
			}
		case kindAsset:
			var asset notation.Asset
			if asset, err = notation.Of(text); err == nil {
				err = c.AddAsset(asset)
			}
		default:
			err = fmt.Errorf("unknown entry kind %q", kind)
		}
		if err != nil {
			return fmt.Errorf("restore %s %q of %s: %w", kind, text, c.ID(), err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	return nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, characterID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM character_terms WHERE character_id = ?`, characterID); err != nil {
		return fmt.Errorf("clear terms: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM character_entries WHERE character_id = ?`, characterID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

func insertTerm(ctx context.Context, tx *sql.Tx, characterID, family, term string, ordinal, rating int, statement string) error {
	var ratingValue, statementValue any
	if family == familyStatement {
		statementValue = statement
	} else {
		ratingValue = rating
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO character_terms (character_id, family, term, ordinal, rating, statement)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		characterID, family, term, ordinal, ratingValue, statementValue,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("term %s %s stored twice: %w", family, term, err)
		}
		return fmt.Errorf("insert %s %s: %w", family, term, err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, characterID, kind, name, text, description string) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO character_entries (character_id, kind, name_key, notation, description)
		 VALUES (?, ?, ?, ?, ?)`,
		characterID, kind, strings.ToLower(name), text, description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %q stored twice: %w", kind, text, err)
		}
		return fmt.Errorf("insert %s %q: %w", kind, text, err)
	}
	return nil
}

func nullInt64(v optional.Value[int64]) sql.NullInt64 {
	n, ok := v.Get()
	return sql.NullInt64{Int64: n, Valid: ok}
}

func fromNullInt64(v sql.NullInt64) optional.Value[int64] {
	if !v.Valid {
		return optional.None[int64]()
	}
	return optional.Some(v.Int64)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.CharacterStore = (*Store)(nil)
