package game

// Code identifies an engine failure class.
type Code string

const (
	CodeDocumentInvalid    Code = "DOCUMENT_INVALID"
	CodeNodeNotFound       Code = "NODE_NOT_FOUND"
	CodeInvalidChoiceIndex Code = "INVALID_CHOICE_INDEX"
	CodeConditionNotMet    Code = "CONDITION_NOT_MET"
	CodeCorruptSave        Code = "CORRUPT_SAVE"
	CodeConditionUnparsed  Code = "CONDITION_UNPARSED" // strict mode only
	CodeEffectInvalid      Code = "EFFECT_INVALID"     // strict mode only
)

// Error is the engine error type. All of them are recoverable: the session
// stays at its last valid node.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable diagnostic
	Metadata map[string]string // node, index, condition, ...
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrDocumentInvalid    = &Error{Code: CodeDocumentInvalid, Message: "document invalid"}
	ErrNodeNotFound       = &Error{Code: CodeNodeNotFound, Message: "node not found"}
	ErrInvalidChoiceIndex = &Error{Code: CodeInvalidChoiceIndex, Message: "invalid choice index"}
	ErrConditionNotMet    = &Error{Code: CodeConditionNotMet, Message: "condition not met"}
	ErrCorruptSave        = &Error{Code: CodeCorruptSave, Message: "corrupt save"}
	ErrConditionUnparsed  = &Error{Code: CodeConditionUnparsed, Message: "condition unparsed"}
	ErrEffectInvalid      = &Error{Code: CodeEffectInvalid, Message: "effect invalid"}
)

// NewError creates an error with a code, message and optional metadata.
func NewError(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// WrapError creates an error that wraps an underlying cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
