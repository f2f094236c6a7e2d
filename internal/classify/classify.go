package classify

import "strings"

// Category is the fixed taxonomy a captured browser signal is sorted into.
type Category string

const (
	CategoryCORS    Category = "CORS"
	CategoryAuth    Category = "AUTH"
	CategoryNetwork Category = "NETWORK"
	CategoryAPI     Category = "API"
	CategoryJS      Category = "JS"
	CategoryWarning Category = "WARNING"
	CategoryUnknown Category = "UNKNOWN"
)

// Categories returns the taxonomy in report order.
func Categories() []Category {
	return []Category{
		CategoryCORS,
		CategoryAuth,
		CategoryNetwork,
		CategoryAPI,
		CategoryJS,
		CategoryWarning,
		CategoryUnknown,
	}
}

// Token tables per category. Matching is case-insensitive substring search,
// evaluated in precedence order: a message mentioning both CORS and a
// TypeError is a CORS error, because messages routinely contain tokens from
// several categories and the earlier match is the more specific diagnosis.
var (
	corsTokens = []string{"cors", "access-control", "cross-origin"}
	authTokens = []string{"401", "unauthorized", "authentication", "not authenticated"}
	netTokens  = []string{"fetch", "network", "failed to load", "net::err_"}
	apiTokens  = []string{"api", "500", "502", "503", "504"}
	jsTokens   = []string{"typeerror", "referenceerror", "syntaxerror", "cannot read", "is not defined"}
)

// Classify maps a raw error message and an optional HTTP status (0 when
// absent) to exactly one Category. It is a pure function: same input, same
// answer, no side effects.
func Classify(message string, status int) Category {
	msg := strings.ToLower(message)

	if containsAny(msg, corsTokens) {
		return CategoryCORS
	}
	if containsAny(msg, authTokens) || status == 401 || status == 403 {
		return CategoryAuth
	}
	if containsAny(msg, netTokens) || (status >= 400 && status < 500) {
		return CategoryNetwork
	}
	if containsAny(msg, apiTokens) || status >= 500 {
		return CategoryAPI
	}
	if containsAny(msg, jsTokens) {
		return CategoryJS
	}
	return CategoryUnknown
}

// IsNavigationAbort reports whether a failed-request event is the browser
// cancelling an in-flight request because the page navigated away. These are
// a property of single-page-app route changes, not product defects, and must
// be discarded before they ever become signals.
func IsNavigationAbort(errorText string, canceled bool) bool {
	if canceled {
		return true
	}
	return strings.Contains(strings.ToLower(errorText), "err_aborted")
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
