package assistant

import (
	"regexp"
	"strings"
)

const maxQueryLength = 500

// Patterns that have no business in an analytics question. Matches are
// rejected before the query ever reaches the model.
var harmfulPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)delete|drop|truncate|update.*set`),
	regexp.MustCompile(`(?i)script|javascript|eval`),
	regexp.MustCompile(`(?i)<script|<iframe|<object`),
}

// QueryError rejects an input query with a user-facing message ID for
// the i18n bundle.
type QueryError struct {
	MessageID string
}

func (e *QueryError) Error() string {
	return "invalid query: " + e.MessageID
}

// ValidateQuery checks an incoming question before any model call.
// It returns nil when the query is acceptable.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return &QueryError{MessageID: "QueryEmpty"}
	}
	if len(query) > maxQueryLength {
		return &QueryError{MessageID: "QueryTooLong"}
	}
	for _, p := range harmfulPatterns {
		if p.MatchString(query) {
			return &QueryError{MessageID: "QueryForbidden"}
		}
	}
	return nil
}
