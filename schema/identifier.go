package schema

import (
	"regexp"
	"strings"

	"github.com/sqldef/ddlgen/keywords"
)

// Quoter is the part of a platform needed to render identifiers.
type Quoter interface {
	QuoteSingleIdentifier(name string) string
	ReservedKeywords() keywords.KeywordList
}

var safeIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identifier is the name of a schema object. Name holds the unquoted form,
// "namespace.name" when qualified. Quoted is set when the raw input was
// explicitly delimited, which forces quoting on every platform.
type Identifier struct {
	Name   string
	Quoted bool

	// path holds the segments of a qualified name separated by segmentSeparator.
	// It is empty for a single segment, whatever dots Name contains.
	path string
}

const segmentSeparator = "\x00"

// NewIdentifier parses a raw, possibly qualified name. Each dot-separated
// segment may be delimited with backticks, double quotes or brackets, and a
// dot inside delimiters belongs to the segment.
func NewIdentifier(raw string) Identifier {
	segments := SplitIdentifier(raw)
	quoted := false
	for i, segment := range segments {
		if unquoted, ok := UnwrapQuotes(segment); ok {
			segments[i] = unquoted
			quoted = true
		}
	}
	return newIdentifier(segments, quoted)
}

// NewName parses the raw name of an object that is never qualified: a column,
// an index or a constraint. Dots are part of the name.
func NewName(raw string) Identifier {
	name, quoted := UnwrapQuotes(raw)
	return Identifier{Name: name, Quoted: quoted}
}

func newIdentifier(segments []string, quoted bool) Identifier {
	id := Identifier{Name: strings.Join(segments, "."), Quoted: quoted}
	if len(segments) > 1 {
		id.path = strings.Join(segments, segmentSeparator)
	}
	return id
}

func (i Identifier) String() string {
	return i.Name
}

// Segments returns the unquoted parts of the name, the namespace parts first.
func (i Identifier) Segments() []string {
	if i.path == "" {
		return []string{i.Name}
	}
	return strings.Split(i.path, segmentSeparator)
}

// Namespace returns the schema part of a qualified name, or "".
func (i Identifier) Namespace() string {
	segments := i.Segments()
	return strings.Join(segments[:len(segments)-1], ".")
}

// ShortName returns the name without its namespace.
func (i Identifier) ShortName() string {
	segments := i.Segments()
	return segments[len(segments)-1]
}

// Qualify places name in the namespace of i. A name that is already
// qualified is returned unchanged.
func (i Identifier) Qualify(name Identifier) Identifier {
	segments := i.Segments()
	if len(segments) == 1 || name.path != "" {
		return name
	}
	return newIdentifier(append(segments[:len(segments)-1:len(segments)-1], name.Name), name.Quoted)
}

// Normalized is the key identifiers are compared by. Names are compared
// case-insensitively on every supported platform.
func (i Identifier) Normalized() string {
	if i.path != "" {
		return strings.ToLower(i.path)
	}
	return strings.ToLower(i.Name)
}

func (i Identifier) EqualFold(other Identifier) bool {
	return i.Normalized() == other.Normalized()
}

// Raw renders the identifier back into a form NewIdentifier parses to the same value.
func (i Identifier) Raw() string {
	if !i.Quoted {
		return i.Name
	}
	segments := i.Segments()
	for j, segment := range segments {
		segments[j] = "`" + strings.ReplaceAll(segment, "`", "``") + "`"
	}
	return strings.Join(segments, ".")
}

// QuotedName renders the identifier for q. A segment is quoted when the
// identifier was explicitly quoted, when it is a reserved keyword of the
// platform, or when it contains characters outside [A-Za-z0-9_].
func (i Identifier) QuotedName(q Quoter) string {
	reserved := q.ReservedKeywords()
	segments := i.Segments()
	for j, segment := range segments {
		if i.Quoted || reserved.IsKeyword(segment) || !safeIdentifier.MatchString(segment) {
			segments[j] = q.QuoteSingleIdentifier(segment)
		}
	}
	return strings.Join(segments, ".")
}

// QuoteNames renders a list of column names for q.
func QuoteNames(q Quoter, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = NewName(name).QuotedName(q)
	}
	return quoted
}

var closingQuotes = map[byte]byte{'`': '`', '"': '"', '[': ']'}

// UnwrapQuotes strips one level of delimiters from s and un-doubles the
// embedded closing delimiter. ok is false when s is not delimited.
func UnwrapQuotes(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	closing, ok := closingQuotes[s[0]]
	if !ok || s[len(s)-1] != closing {
		return s, false
	}
	c := string(closing)
	return strings.ReplaceAll(s[1:len(s)-1], c+c, c), true
}

// SplitIdentifier splits a possibly qualified name on dots that are not inside delimiters.
func SplitIdentifier(raw string) []string {
	var segments []string
	var current strings.Builder
	var closing byte
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case closing != 0:
			current.WriteByte(ch)
			if ch == closing {
				if i+1 < len(raw) && raw[i+1] == closing {
					current.WriteByte(raw[i+1])
					i++
				} else {
					closing = 0
				}
			}
		case ch == '.':
			segments = append(segments, current.String())
			current.Reset()
		default:
			if c, ok := closingQuotes[ch]; ok && current.Len() == 0 {
				closing = c
			}
			current.WriteByte(ch)
		}
	}
	return append(segments, current.String())
}
