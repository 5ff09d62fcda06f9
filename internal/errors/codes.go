package errors

// Error codes for brilflow.
// These codes are used in error messages and LSP diagnostics
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0100-E0199: Input errors (text and JSON)
// E0600-E0699: Control flow errors
// E0700-E0799: Pass errors
// W0001-W0099: Warnings

const (
	// E0100: Malformed Bril text
	ErrorSyntax = "E0100"

	// E0101: Malformed Bril JSON document
	ErrorMalformedJSON = "E0101"

	// E0102: Missing or invalid required field
	ErrorMissingField = "E0102"

	// E0103: Instruction shape does not match its opcode
	ErrorInvalidInstruction = "E0103"

	// E0600: Two blocks carry the same label
	ErrorDuplicateBlockName = "E0600"

	// E0601: Jump or branch to a label that does not exist
	ErrorUnknownTarget = "E0601"

	// E0602: Dominance requested on a CFG without a unique reachable entry
	ErrorUnreachableDominanceInput = "E0602"

	// E0700: Pass failed on a function
	ErrorPassFailed = "E0700"

	// W0001: Blocks unreachable from the entry
	WarningUnreachableBlock = "W0001"

	// W0002: Unknown configuration key
	WarningUnknownConfigKey = "W0002"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Bril text could not be parsed"
	case ErrorMalformedJSON:
		return "Bril JSON document is malformed"
	case ErrorMissingField:
		return "Required field is missing or has the wrong type"
	case ErrorInvalidInstruction:
		return "Instruction operands do not match the opcode"
	case ErrorDuplicateBlockName:
		return "Label names more than one block in a function"
	case ErrorUnknownTarget:
		return "Jump or branch targets an unknown label"
	case ErrorUnreachableDominanceInput:
		return "Dominance needs a unique entry that reaches every block"
	case ErrorPassFailed:
		return "Optimization pass failed"
	case WarningUnreachableBlock:
		return "Block is unreachable from the function entry"
	case WarningUnknownConfigKey:
		return "Configuration key is not recognized"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Input"
	case code >= "E0600" && code < "E0700":
		return "Control Flow"
	case code >= "E0700" && code < "E0800":
		return "Pass"
	case IsWarning(code):
		return "Warning"
	default:
		return "Unknown"
	}
}
