// Package sheet exposes notation parsing and character sheets over gRPC.
package sheet

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/traitsheet/internal/platform/errors"
	"github.com/louisbranch/traitsheet/internal/platform/grpc/pagination"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/character"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/optional"
	"github.com/louisbranch/traitsheet/internal/services/sheet/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	defaultListCharactersPageSize = 10
	maxListCharactersPageSize     = 50
)

// Service implements SheetServiceServer.
type Service struct {
	store    storage.CharacterStore
	notation *notation.Notation

	// mu serializes read-modify-write cycles on stored sheets.
	mu sync.Mutex
}

var _ SheetServiceServer = (*Service)(nil)

// NewService creates a sheet service backed by character storage.
func NewService(store storage.CharacterStore) *Service {
	return &Service{
		store:    store,
		notation: notation.Default(),
	}
}

// ParseAsset parses one asset line.
func (s *Service) ParseAsset(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "parse asset request is required")
	}
	a, err := notation.Of(in.GetValue())
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return toStruct(assetToMap(a))
}

// FormatAsset renders an asset from name, quality, level and description.
func (s *Service) FormatAsset(_ context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "format asset request is required")
	}
	quality, err := intField(in, "quality")
	if err != nil {
		return nil, err
	}
	level, err := intField(in, "level")
	if err != nil {
		return nil, err
	}
	a, err := notation.NewAsset(s.notation.Rules(), stringField(in, "name"), quality, level, stringField(in, "description"))
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	text, err := s.notation.FormatString(notation.AssetValue{Asset: a})
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return wrapperspb.String(text), nil
}

// CreateCharacter stores a new sheet with the default schemas. The request
// carries name and optionally guild_id and owner_id.
func (s *Service) CreateCharacter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create character request is required")
	}
	if s == nil || s.store == nil {
		return nil, status.Error(codes.Internal, "character store is not configured")
	}
	var opts []character.Option
	for _, key := range []string{"guild_id", "owner_id"} {
		id, err := intField(in, key)
		if err != nil {
			return nil, err
		}
		if v, ok := id.Get(); ok {
			if key == "guild_id" {
				opts = append(opts, character.WithGuildID(int64(v)))
			} else {
				opts = append(opts, character.WithOwnerID(int64(v)))
			}
		}
	}
	c, err := character.New(stringField(in, "name"), opts...)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	if err := s.store.PutCharacter(ctx, c); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return toStruct(characterToMap(c))
}

// GetCharacter returns one sheet by id.
func (s *Service) GetCharacter(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get character request is required")
	}
	if s == nil || s.store == nil {
		return nil, status.Error(codes.Internal, "character store is not configured")
	}
	id := strings.TrimSpace(in.GetValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "character id is required")
	}
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return toStruct(characterToMap(c))
}

// ListCharacters returns a page of character summaries. The request may carry
// guild_id, page_size, page_token and order_by ("name" or "updated_at").
func (s *Service) ListCharacters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list characters request is required")
	}
	if s == nil || s.store == nil {
		return nil, status.Error(codes.Internal, "character store is not configured")
	}
	guild, err := intField(in, "guild_id")
	if err != nil {
		return nil, err
	}
	size, err := intField(in, "page_size")
	if err != nil {
		return nil, err
	}
	pageSize := pagination.ClampPageSize(size.Or(0), pagination.PageSizeConfig{
		Default: defaultListCharactersPageSize,
		Max:     maxListCharactersPageSize,
	})
	orderBy, err := pagination.NormalizeOrderBy(stringField(in, "order_by"), pagination.OrderByConfig{
		Default: "name",
		Allowed: []string{"name", "updated_at"},
	})
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	guildID := optional.None[int64]()
	if g, ok := guild.Get(); ok {
		guildID = optional.Some(int64(g))
	}
	summaries, err := s.store.ListCharacters(ctx, guildID)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	if orderBy == "updated_at" {
		slices.SortStableFunc(summaries, func(a, b storage.CharacterSummary) int {
			return cmp.Compare(b.UpdatedAt.UnixMilli(), a.UpdatedAt.UnixMilli())
		})
	}

	start, end, next, err := pagination.Window(len(summaries), stringField(in, "page_token"), pageSize)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	characters := make([]any, 0, end-start)
	for _, summary := range summaries[start:end] {
		characters = append(characters, summaryToMap(summary))
	}
	return toStruct(map[string]any{
		"characters":      characters,
		"next_page_token": next,
	})
}

// SetTerm applies one validated mutation: kind is skill, attribute or
// statement; value is a number for ratings and text for statements.
func (s *Service) SetTerm(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "set term request is required")
	}
	kind := strings.ToLower(stringField(in, "kind"))
	term := stringField(in, "term")
	return s.update(ctx, stringField(in, "id"), func(c *character.Character) error {
		switch kind {
		case "skill", "attribute":
			rating, err := intField(in, "value")
			if err != nil {
				return err
			}
			v, ok := rating.Get()
			if !ok {
				return status.Error(codes.InvalidArgument, "value is required")
			}
			if kind == "skill" {
				return c.SetSkillValue(term, v)
			}
			return c.SetAttributeValue(term, v)
		case "statement":
			return c.SetDriveStatement(term, stringField(in, "value"))
		default:
			return status.Errorf(codes.InvalidArgument, "unknown kind %q", kind)
		}
	})
}

// AddAsset adds an asset written in notation to a sheet.
func (s *Service) AddAsset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "add asset request is required")
	}
	a, err := notation.Of(stringField(in, "notation"))
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	return s.update(ctx, stringField(in, "id"), func(c *character.Character) error {
		return c.AddAsset(a)
	})
}

func (s *Service) update(ctx context.Context, id string, mutate func(*character.Character) error) (*structpb.Struct, error) {
	if s == nil || s.store == nil {
		return nil, status.Error(codes.Internal, "character store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "character id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, apperrors.HandleError(err)
	}
	if err := mutate(c); err != nil {
		return nil, apperrors.HandleError(err)
	}
	if err := s.store.PutCharacter(ctx, c); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return toStruct(characterToMap(c))
}

func assetToMap(a notation.Asset) map[string]any {
	m := map[string]any{
		"name":     a.Name(),
		"notation": a.String(),
	}
	if q, ok := a.Quality().Get(); ok {
		m["quality"] = q
	}
	if lv, ok := a.Level().Get(); ok {
		m["level"] = lv
	}
	if d := a.Description(); d != "" {
		m["description"] = d
	}
	return m
}

func characterToMap(c *character.Character) map[string]any {
	schemas := c.Schemas()
	skills := []any{}
	for term, v := range c.Skills() {
		skills = append(skills, map[string]any{"term": term, "rating": v})
	}
	attributes := []any{}
	for term, v := range c.Attributes() {
		entry := map[string]any{"term": term, "rating": v}
		if statement, ok := c.DriveStatement(term).Get(); ok {
			entry["statement"] = statement
		}
		attributes = append(attributes, entry)
	}
	talents := []any{}
	for _, t := range c.Talents() {
		talents = append(talents, map[string]any{"name": t.Name, "description": t.Description})
	}
	traits := []any{}
	for _, t := range c.Traits() {
		traits = append(traits, t.String())
	}
	assets := []any{}
	for _, a := range c.Assets() {
		assets = append(assets, assetToMap(a))
	}

	m := map[string]any{
		"id":              c.ID(),
		"name":            c.Name(),
		"skills":          skills,
		"skill_total":     c.SkillTotal(),
		"skill_pool":      schemas.Skills.Pool,
		"attributes":      attributes,
		"attribute_total": c.AttributeTotal(),
		"attribute_pool":  schemas.Attributes.Pool,
		"talents":         talents,
		"traits":          traits,
		"assets":          assets,
	}
	if g, ok := c.GuildID().Get(); ok {
		m["guild_id"] = g
	}
	if o, ok := c.OwnerID().Get(); ok {
		m["owner_id"] = o
	}
	return m
}

func summaryToMap(summary storage.CharacterSummary) map[string]any {
	m := map[string]any{
		"id":         summary.ID,
		"name":       summary.Name,
		"created_at": summary.CreatedAt.Format(time.RFC3339),
		"updated_at": summary.UpdatedAt.Format(time.RFC3339),
	}
	if g, ok := summary.GuildID.Get(); ok {
		m["guild_id"] = g
	}
	if o, ok := summary.OwnerID.Get(); ok {
		m["owner_id"] = o
	}
	return m
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// intField reads an integral number; a missing or null field is absent.
func intField(in *structpb.Struct, key string) (optional.Value[int], error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return optional.None[int](), nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return optional.None[int](), nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return optional.None[int](), status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
		}
		return optional.Some(int(n)), nil
	default:
		return optional.None[int](), status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
}
