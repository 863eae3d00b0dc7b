// Package storage defines persistence contracts for character sheets.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
)

// ErrNotFound indicates a requested character is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// CharacterSummary is the listing view of a stored character.
type CharacterSummary struct {
	ID        string
	Name      string
	GuildID   optional.Value[int64]
	OwnerID   optional.Value[int64]
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CharacterStore persists character sheets.
type CharacterStore interface {
	// PutCharacter inserts or replaces a character. A character without an
	// id is assigned one.
	PutCharacter(ctx context.Context, c *character.Character) error
	GetCharacter(ctx context.Context, id string) (*character.Character, error)
	// ListCharacters returns summaries ordered by name, restricted to one
	// guild when guildID is present.
	ListCharacters(ctx context.Context, guildID optional.Value[int64]) ([]CharacterSummary, error)
	DeleteCharacter(ctx context.Context, id string) error
}
