package output

import "fmt"

// escapes is switched off for output that is not a terminal.
var escapes = true

// SetEscapes turns terminal escape sequences on or off.
func SetEscapes(on bool) {
	escapes = on
}

// Escapes reports whether terminal escape sequences are on.
func Escapes() bool {
	return escapes
}

func TerminalFormatAsDim(text string) string {
	if !escapes {
		return text
	}
	return fmt.Sprintf("\x1B[2m%s\x1B[0m", text)
}

func TerminalFormatAsError(text string) string {
	if !escapes {
		return text
	}
	return fmt.Sprintf("\x1B[31m%s\x1B[0m", text)
}

func TerminalFormatAsWarning(text string) string {
	if !escapes {
		return text
	}
	return fmt.Sprintf("\x1B[33m%s\x1B[0m", text)
}
