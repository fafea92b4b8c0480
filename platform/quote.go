package platform

import (
	"strconv"
	"strings"

	"github.com/sqldef/ddlgen/schema"
)

// LikeWildcards are the characters with a special meaning in every LIKE pattern.
const LikeWildcards = "%_"

// QuoteSingleIdentifier wraps name in open and close, doubling every embedded close.
func QuoteSingleIdentifier(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// QuoteIdentifier quotes every dot-separated segment of name with q. A segment
// that is already delimited is unwrapped first, so the output always uses the
// delimiter of q.
func QuoteIdentifier(q schema.Quoter, name string) string {
	segments := schema.SplitIdentifier(name)
	for i, segment := range segments {
		if unquoted, ok := schema.UnwrapQuotes(segment); ok {
			segment = unquoted
		}
		segments[i] = q.QuoteSingleIdentifier(segment)
	}
	return strings.Join(segments, ".")
}

// QuoteStringLiteral wraps value in quote, doubling every embedded quote.
func QuoteStringLiteral(value, quote string) string {
	return quote + strings.ReplaceAll(value, quote, quote+quote) + quote
}

// EscapeStringForLike prefixes every character of wildcards found in value,
// and escapeChar itself, with escapeChar.
func EscapeStringForLike(value, escapeChar, wildcards string) string {
	special := wildcards + escapeChar
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(special, r) {
			b.WriteString(escapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CheckLimit validates the arguments of ModifyLimitQuery.
func CheckLimit(limit, offset int) error {
	if offset < 0 {
		return &schema.InvalidArgumentError{Argument: "offset", Value: strconv.Itoa(offset), Reason: "must not be negative"}
	}
	if limit < NoLimit {
		return &schema.InvalidArgumentError{Argument: "limit", Value: strconv.Itoa(limit), Reason: "must not be negative"}
	}
	return nil
}

// LimitOffsetQuery appends LIMIT and OFFSET clauses. unbounded is the LIMIT
// value used when only an offset is requested; an empty unbounded omits LIMIT.
func LimitOffsetQuery(query string, limit, offset int, unbounded string) (string, error) {
	if err := CheckLimit(limit, offset); err != nil {
		return "", err
	}
	if limit == NoLimit && offset == 0 {
		return query, nil
	}
	if limit != NoLimit {
		query += " LIMIT " + strconv.Itoa(limit)
	} else if unbounded != "" {
		query += " LIMIT " + unbounded
	}
	if offset > 0 {
		query += " OFFSET " + strconv.Itoa(offset)
	}
	return query, nil
}
