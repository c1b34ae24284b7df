package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal    ErrorCode = "COMMON_001"
	ErrCodeBadRequest  ErrorCode = "COMMON_002"
	ErrCodeNotFound    ErrorCode = "COMMON_005"
	ErrCodeValidation  ErrorCode = "COMMON_010"
	ErrCodeIO          ErrorCode = "COMMON_017"
	ErrCodeEmptyResult ErrorCode = "COMMON_018"
	ErrCodeUnknown     ErrorCode = "COMMON_999"
	ErrCodeOK          ErrorCode = "OK"
)

// Structure Module Error Codes
const (
	ErrCodeStructureParse ErrorCode = "STRUCT_001"
	ErrCodeChainNotFound  ErrorCode = "STRUCT_002"
)

// Position Module Error Codes
const (
	ErrCodeInvalidSpanFormat    ErrorCode = "POS_001"
	ErrCodeInvalidResidueFormat ErrorCode = "POS_002"
	ErrCodeUnresolvedPosition   ErrorCode = "POS_003"
	ErrCodeInvalidListingLine   ErrorCode = "POS_004"
)

// Aliases used at call sites.
const (
	CodeOK                   = ErrCodeOK
	CodeUnknown              = ErrCodeUnknown
	CodeInternal             = ErrCodeInternal
	CodeInvalidParam         = ErrCodeBadRequest
	CodeNotFound             = ErrCodeNotFound
	CodeIO                   = ErrCodeIO
	CodeEmptyResult          = ErrCodeEmptyResult
	CodeParse                = ErrCodeStructureParse
	CodeChainNotFound        = ErrCodeChainNotFound
	CodeInvalidSpanFormat    = ErrCodeInvalidSpanFormat
	CodeInvalidResidueFormat = ErrCodeInvalidResidueFormat
	CodeUnresolvedPosition   = ErrCodeUnresolvedPosition
)

var defaultMessages = map[ErrorCode]string{
	ErrCodeInternal:             "internal error",
	ErrCodeBadRequest:           "invalid parameter",
	ErrCodeNotFound:             "not found",
	ErrCodeValidation:           "validation failed",
	ErrCodeIO:                   "i/o failure",
	ErrCodeEmptyResult:          "no positions selected",
	ErrCodeStructureParse:       "structure file could not be parsed",
	ErrCodeChainNotFound:        "chain not present in structure",
	ErrCodeInvalidSpanFormat:    "invalid residue span",
	ErrCodeInvalidResidueFormat: "invalid residue format",
	ErrCodeUnresolvedPosition:   "position does not resolve to a residue",
	ErrCodeInvalidListingLine:   "invalid interface listing line",
}

// DefaultMessageForCode returns the canonical message for code, or the code
// itself when no message is registered.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return string(code)
}

// ModuleForCode returns the module prefix of code ("COMMON", "STRUCT", "POS").
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}

// IsItemError reports whether code describes a per-item problem (a single bad
// span, token or position) as opposed to a run-level failure.  Item errors are
// skipped with a warning unless strict mode is enabled.
func IsItemError(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidSpanFormat, ErrCodeInvalidResidueFormat,
		ErrCodeUnresolvedPosition, ErrCodeInvalidListingLine, ErrCodeChainNotFound:
		return true
	}
	return false
}
