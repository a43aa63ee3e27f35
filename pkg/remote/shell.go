package remote

import "strings"

// Quote quotes a path or argument for safe use in remote shell commands.
// Paths starting with ~/ preserve tilde expansion while quoting the rest.
// Anything made only of safe characters is returned as is.
func Quote(s string) string {
	if strings.HasPrefix(s, "~/") {
		return "~/" + singleQuote(s[2:])
	}
	if s != "" && isSafe(s) {
		return s
	}
	return singleQuote(s)
}

// singleQuote wraps a string in single quotes, escaping any embedded single quotes.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

func isSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("-_./:=@+,", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// Join quotes each argument and joins them into one command line.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}
