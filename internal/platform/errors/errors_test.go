package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeSheetInvalidSkill, "invalid skill value")
	detailed := WithMetadata(CodeSheetInvalidSkill, "skill Battle = 9 exceeds 8", map[string]string{"Term": "Battle"})

	if !stderrors.Is(detailed, sentinel) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(detailed, New(CodeSheetInvalidAttribute, "other")) {
		t.Fatal("expected errors with different codes not to match")
	}
	wrapped := fmt.Errorf("set skill: %w", detailed)
	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("expected match through fmt wrapping")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeNotFound, "character missing", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "character missing" {
		t.Fatalf("Error() = %q", err.Error())
	}
	err = WrapWithMetadata(CodeNotFound, "character missing", map[string]string{"ID": "x"}, cause)
	if err.Metadata["ID"] != "x" || !stderrors.Is(err, cause) {
		t.Fatalf("unexpected error %+v", err)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain", New(CodeNotationInvalidString, "x"), CodeNotationInvalidString},
		{"wrapped", fmt.Errorf("ctx: %w", New(CodeSchemaInvalid, "x")), CodeSchemaInvalid},
		{"plain", stderrors.New("x"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Fatalf("CodeOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeNotationInvalidString, codes.InvalidArgument},
		{CodeSheetInvalidSkill, codes.InvalidArgument},
		{CodeSheetInvalidStatement, codes.FailedPrecondition},
		{CodeSheetEntryNotFound, codes.NotFound},
		{CodeSheetDuplicateEntry, codes.AlreadyExists},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Errorf("%s.GRPCCode() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeNotationInvalidQuality, "quality 5 outside 0..4", map[string]string{"Quality": "5"})
	st, ok := status.FromError(err.ToGRPCStatus("en-US", "Quality must be between 0 and 4."))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("code = %v", st.Code())
	}
	if st.Message() != "quality 5 outside 0..4" {
		t.Fatalf("message = %q", st.Message())
	}
	var sawInfo, sawLocalized bool
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			sawInfo = true
			if d.GetReason() != string(CodeNotationInvalidQuality) || d.GetDomain() != Domain {
				t.Fatalf("unexpected error info %+v", d)
			}
			if d.GetMetadata()["Quality"] != "5" {
				t.Fatalf("metadata = %v", d.GetMetadata())
			}
		case *errdetails.LocalizedMessage:
			sawLocalized = true
			if d.GetMessage() != "Quality must be between 0 and 4." {
				t.Fatalf("localized = %q", d.GetMessage())
			}
		}
	}
	if !sawInfo || !sawLocalized {
		t.Fatalf("missing details: info=%v localized=%v", sawInfo, sawLocalized)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "domain", err: fmt.Errorf("add asset: %w", New(CodeSheetDuplicateEntry, "asset \"Lasgun\" is already on the sheet")), want: codes.AlreadyExists},
		{name: "status", err: status.Error(codes.Unavailable, "down"), want: codes.Unavailable},
		{name: "plain", err: stderrors.New("boom"), want: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(HandleError(tt.err))
			if !ok {
				t.Fatal("expected grpc status")
			}
			if st.Code() != tt.want {
				t.Fatalf("code = %v, want %v", st.Code(), tt.want)
			}
		})
	}
	if HandleError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestToGRPCStatusListsFieldViolations(t *testing.T) {
	err := WithMetadata(CodeSheetInvalidSkill, "unknown skill \"Batle\"", map[string]string{
		"Term":       "Batle",
		"Suggestion": "Battle",
	})
	st, _ := status.FromError(err.ToGRPCStatus(DefaultLocale, err.Message))

	var violations []*errdetails.BadRequest_FieldViolation
	for _, detail := range st.Details() {
		if d, ok := detail.(*errdetails.BadRequest); ok {
			violations = d.GetFieldViolations()
		}
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %v, want one", violations)
	}
	if violations[0].GetField() != "term" {
		t.Fatalf("field = %q, want term", violations[0].GetField())
	}
	if want := "unknown skill \"Batle\" (try Battle)"; violations[0].GetDescription() != want {
		t.Fatalf("description = %q, want %q", violations[0].GetDescription(), want)
	}

	notFound := WithMetadata(CodeNotFound, "record not found", map[string]string{"ID": "x"})
	st, _ = status.FromError(notFound.ToGRPCStatus(DefaultLocale, notFound.Message))
	for _, detail := range st.Details() {
		if _, ok := detail.(*errdetails.BadRequest); ok {
			t.Fatal("expected no bad request details for not found")
		}
	}
}
