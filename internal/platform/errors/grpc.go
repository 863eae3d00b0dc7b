package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale tags the user message attached to every status.
const DefaultLocale = "en-US"

// HandleError converts domain errors to gRPC status for client responses.
// Errors that are already statuses pass through; anything else becomes an
// opaque Internal status.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.ToGRPCStatus(DefaultLocale, appErr.Message)
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}
