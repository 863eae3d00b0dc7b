// Package errors provides structured error handling for the sheet domain.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Notation errors
	CodeNotationInvalidString      Code = "NOTATION_INVALID_STRING"
	CodeNotationInvalidName        Code = "NOTATION_INVALID_NAME"
	CodeNotationInvalidLevel       Code = "NOTATION_INVALID_LEVEL"
	CodeNotationInvalidQuality     Code = "NOTATION_INVALID_QUALITY"
	CodeNotationInvalidDescription Code = "NOTATION_INVALID_DESCRIPTION"
	CodeNotationInvalidRules       Code = "NOTATION_INVALID_RULES"
	CodeNotationCannotFormat       Code = "NOTATION_CANNOT_FORMAT"

	// Character sheet errors
	CodeSheetInvalidCharacter Code = "SHEET_INVALID_CHARACTER"
	CodeSheetInvalidSkill     Code = "SHEET_INVALID_SKILL"
	CodeSheetInvalidAttribute Code = "SHEET_INVALID_ATTRIBUTE"
	CodeSheetInvalidStatement Code = "SHEET_INVALID_DRIVE_STATEMENT"
	CodeSheetInvalidTalent    Code = "SHEET_INVALID_TALENT"
	CodeSheetDuplicateEntry   Code = "SHEET_DUPLICATE_ENTRY"
	CodeSheetEntryNotFound    Code = "SHEET_ENTRY_NOT_FOUND"

	// Rules schema errors
	CodeSchemaInvalid Code = "SCHEMA_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeNotationInvalidString,
		CodeNotationInvalidName,
		CodeNotationInvalidLevel,
		CodeNotationInvalidQuality,
		CodeNotationInvalidDescription,
		CodeNotationInvalidRules,
		CodeNotationCannotFormat,
		CodeSheetInvalidCharacter,
		CodeSheetInvalidSkill,
		CodeSheetInvalidAttribute,
		CodeSheetInvalidTalent,
		CodeSchemaInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeSheetInvalidStatement:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeSheetEntryNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeSheetDuplicateEntry:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
