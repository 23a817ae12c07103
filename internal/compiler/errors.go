package compiler

// Diagnostic codes reported under diag.PrefixCompiler. Numbering is stable
// within this package but otherwise arbitrary; the host should key off the
// rendered "C%04d" string, not the Go constant.
const (
	errUndefinedIdentifier = iota + 1
	errAmbiguousFunctionName
	errNoSuchType
	errInvalidSubtypeUse
	errInstantiationRequiresSubtype
	errUnexpectedInstantiationSubtype
	errDuplicateSymbol
	errNoValidConversion
	errWrongArgumentCount
	errNotCallable
	errImportCycle
	errBreakOutsideLoop
	errContinueOutsideLoop
	errReturnTypeMismatch
	errNotAnLValue
)

// CodeImportCycle is errImportCycle's diag.Message code, exported for
// internal/pipeline to report under the same C-prefixed numbering when it
// detects a module import cycle.
const CodeImportCycle = errImportCycle
