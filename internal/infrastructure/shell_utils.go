package infrastructure

import "strings"

// shellMeta holds the characters that make an argument unsafe to paste
// into a POSIX shell unquoted
const shellMeta = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellQuote quotes s for display in a copy-pasteable command line.
// It is only used for logging; exec.Command needs no quoting.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellMeta) {
		return s
	}
	// Close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellCommandLine renders binary and args as a single quoted command line
func ShellCommandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellQuote(binary))
	for _, arg := range args {
		parts = append(parts, ShellQuote(arg))
	}
	return strings.Join(parts, " ")
}
