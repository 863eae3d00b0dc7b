// Package errors carries coded sheet errors and their gRPC status form.
package errors

import (
	stderrors "errors"
	"maps"
	"slices"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// Domain is reported as the ErrorInfo domain on every status.
const Domain = "github.com/louisbranch/traitsheet"

// suggestionKey marks metadata that hints at a fix rather than naming a field.
const suggestionKey = "Suggestion"

type protoDetail = protoadapt.MessageV1

// Error is a coded failure. Message is meant for logs; Metadata names the
// offending pieces (Term, Quality, Level...) so callers can point at them.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so sentinels declared with
// New compare equal to detailed errors built later.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New returns an error without metadata or cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error describing the rejected pieces.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap returns an error that keeps cause in the chain.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WrapWithMetadata combines WithMetadata and Wrap.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// ToGRPCStatus builds the status for e. The status message stays the log
// message; userMessage travels as a LocalizedMessage. Invalid arguments also
// list each metadata field as a BadRequest violation.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	details := []protoDetail{
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	}
	if grpcCode == codes.InvalidArgument {
		if violations := e.fieldViolations(); len(violations) > 0 {
			details = append(details, &errdetails.BadRequest{FieldViolations: violations})
		}
	}

	st, err := status.New(grpcCode, e.Message).WithDetails(details...)
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}

func (e *Error) fieldViolations() []*errdetails.BadRequest_FieldViolation {
	var out []*errdetails.BadRequest_FieldViolation
	for _, key := range slices.Sorted(maps.Keys(e.Metadata)) {
		if key == suggestionKey {
			continue
		}
		description := e.Message
		if hint, ok := e.Metadata[suggestionKey]; ok {
			description += " (try " + hint + ")"
		}
		out = append(out, &errdetails.BadRequest_FieldViolation{
			Field:       strings.ToLower(key),
			Description: description,
		})
	}
	return out
}
