package sheet

import (
	"context"
	"path/filepath"
	"testing"

	sheetsqlite "github.com/louisbranch/traitsheet/internal/services/sheet/storage/sqlite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestParseAsset(t *testing.T) {
	svc := NewService(nil)

	out, err := svc.ParseAsset(context.Background(), wrapperspb.String("Lasgun(Q2)(3): military-grade"))
	if err != nil {
		t.Fatalf("parse asset: %v", err)
	}
	fields := out.GetFields()
	if got := fields["name"].GetStringValue(); got != "Lasgun" {
		t.Fatalf("name = %q, want Lasgun", got)
	}
	if got := fields["quality"].GetNumberValue(); got != 2 {
		t.Fatalf("quality = %v, want 2", got)
	}
	if got := fields["level"].GetNumberValue(); got != 3 {
		t.Fatalf("level = %v, want 3", got)
	}
	if got := fields["notation"].GetStringValue(); got != "Lasgun(Q2)(3): military-grade" {
		t.Fatalf("notation = %q", got)
	}
}

func TestParseAssetMapsNotationErrors(t *testing.T) {
	svc := NewService(nil)
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "quality out of range", input: "Shield(Q5)"},
		{name: "trailing text", input: "Shield(Q1) extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseAsset(context.Background(), wrapperspb.String(tt.input))
			if got := status.Code(err); got != codes.InvalidArgument {
				t.Fatalf("code = %v, want %v (err %v)", got, codes.InvalidArgument, err)
			}
		})
	}
}

func TestFormatAsset(t *testing.T) {
	svc := NewService(nil)

	in := mustStruct(t, map[string]any{"name": "Lasgun", "quality": 2, "level": 3, "description": "military-grade"})
	out, err := svc.FormatAsset(context.Background(), in)
	if err != nil {
		t.Fatalf("format asset: %v", err)
	}
	if got := out.GetValue(); got != "Lasgun(Q2)(3): military-grade;;" {
		t.Fatalf("formatted = %q", got)
	}

	_, err = svc.FormatAsset(context.Background(), mustStruct(t, map[string]any{"name": "Lasgun", "quality": 2.5}))
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("fractional quality code = %v, want %v", got, codes.InvalidArgument)
	}
	_, err = svc.FormatAsset(context.Background(), mustStruct(t, map[string]any{"name": "Lasgun"}))
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("missing quality code = %v, want %v", got, codes.InvalidArgument)
	}
}

func TestCharacterLifecycle(t *testing.T) {
	svc := NewService(openStore(t))
	ctx := context.Background()

	created, err := svc.CreateCharacter(ctx, mustStruct(t, map[string]any{"name": "Ilsa Vorn", "guild_id": 9}))
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	id := created.GetFields()["id"].GetStringValue()
	if id == "" {
		t.Fatal("expected an id")
	}

	if _, err := svc.SetTerm(ctx, mustStruct(t, map[string]any{"id": id, "kind": "attribute", "term": "justice", "value": 7})); err != nil {
		t.Fatalf("set attribute: %v", err)
	}
	sheet, err := svc.SetTerm(ctx, mustStruct(t, map[string]any{"id": id, "kind": "statement", "term": "Justice", "value": "The guilty must answer."}))
	if err != nil {
		t.Fatalf("set statement: %v", err)
	}
	attributes := sheet.GetFields()["attributes"].GetListValue().GetValues()
	if len(attributes) != 1 {
		t.Fatalf("attributes = %v", attributes)
	}
	justice := attributes[0].GetStructValue().GetFields()
	if justice["term"].GetStringValue() != "Justice" || justice["statement"].GetStringValue() != "The guilty must answer." {
		t.Fatalf("justice = %v", justice)
	}

	_, err = svc.SetTerm(ctx, mustStruct(t, map[string]any{"id": id, "kind": "attribute", "term": "Justice", "value": 5}))
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("lowering below statement threshold code = %v, want %v", got, codes.InvalidArgument)
	}
	_, err = svc.SetTerm(ctx, mustStruct(t, map[string]any{"id": id, "kind": "skill", "term": "Battle", "value": 9}))
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("skill out of range code = %v, want %v", got, codes.InvalidArgument)
	}

	if _, err := svc.AddAsset(ctx, mustStruct(t, map[string]any{"id": id, "notation": "Lasgun(Q2)(3)"})); err != nil {
		t.Fatalf("add asset: %v", err)
	}
	_, err = svc.AddAsset(ctx, mustStruct(t, map[string]any{"id": id, "notation": "lasgun(Q1)"}))
	if got := status.Code(err); got != codes.AlreadyExists {
		t.Fatalf("duplicate asset code = %v, want %v", got, codes.AlreadyExists)
	}

	got, err := svc.GetCharacter(ctx, wrapperspb.String(id))
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	fields := got.GetFields()
	if fields["attribute_total"].GetNumberValue() != 7 {
		t.Fatalf("attribute total = %v, want 7", fields["attribute_total"])
	}
	if fields["guild_id"].GetNumberValue() != 9 {
		t.Fatalf("guild id = %v, want 9", fields["guild_id"])
	}
	assets := fields["assets"].GetListValue().GetValues()
	if len(assets) != 1 || assets[0].GetStructValue().GetFields()["notation"].GetStringValue() != "Lasgun(Q2)(3)" {
		t.Fatalf("assets = %v", assets)
	}

	_, err = svc.GetCharacter(ctx, wrapperspb.String("missing"))
	if got := status.Code(err); got != codes.NotFound {
		t.Fatalf("missing character code = %v, want %v", got, codes.NotFound)
	}
}

func TestListCharactersPages(t *testing.T) {
	svc := NewService(openStore(t))
	ctx := context.Background()
	for _, name := range []string{"Cole", "Ada", "Bram"} {
		if _, err := svc.CreateCharacter(ctx, mustStruct(t, map[string]any{"name": name, "guild_id": 1})); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := svc.CreateCharacter(ctx, mustStruct(t, map[string]any{"name": "Dara", "guild_id": 2})); err != nil {
		t.Fatalf("create Dara: %v", err)
	}

	first, err := svc.ListCharacters(ctx, mustStruct(t, map[string]any{"guild_id": 1, "page_size": 2}))
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if got := listedNames(first); len(got) != 2 || got[0] != "Ada" || got[1] != "Bram" {
		t.Fatalf("first page = %v", got)
	}
	token := first.GetFields()["next_page_token"].GetStringValue()
	if token == "" {
		t.Fatal("expected a next page token")
	}

	second, err := svc.ListCharacters(ctx, mustStruct(t, map[string]any{"guild_id": 1, "page_size": 2, "page_token": token}))
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if got := listedNames(second); len(got) != 1 || got[0] != "Cole" {
		t.Fatalf("second page = %v", got)
	}
	if next := second.GetFields()["next_page_token"].GetStringValue(); next != "" {
		t.Fatalf("expected last page, got token %q", next)
	}

	_, err = svc.ListCharacters(ctx, mustStruct(t, map[string]any{"order_by": "owner"}))
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("bad order_by code = %v, want %v", got, codes.InvalidArgument)
	}
}

func TestServiceRequiresStore(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.GetCharacter(context.Background(), wrapperspb.String("abc"))
	if got := status.Code(err); got != codes.Internal {
		t.Fatalf("code = %v, want %v", got, codes.Internal)
	}
}

func listedNames(resp *structpb.Struct) []string {
	var names []string
	for _, v := range resp.GetFields()["characters"].GetListValue().GetValues() {
		names = append(names, v.GetStructValue().GetFields()["name"].GetStringValue())
	}
	return names
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("new struct: %v", err)
	}
	return s
}

func openStore(t *testing.T) *sheetsqlite.Store {
	t.Helper()
	store, err := sheetsqlite.Open(filepath.Join(t.TempDir(), "sheet.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
