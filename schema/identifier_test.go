package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqldef/ddlgen/keywords"
)

type doubleQuoter struct{}

func (doubleQuoter) QuoteSingleIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (doubleQuoter) ReservedKeywords() keywords.KeywordList {
	return keywords.PostgreSQL
}

func TestNewIdentifier(t *testing.T) {
	tests := []struct {
		raw       string
		name      string
		quoted    bool
		namespace string
		short     string
	}{
		{raw: "users", name: "users", short: "users"},
		{raw: "app.users", name: "app.users", namespace: "app", short: "users"},
		{raw: `"Users"`, name: "Users", quoted: true, short: "Users"},
		{raw: "`order`", name: "order", quoted: true, short: "order"},
		{raw: "[my table]", name: "my table", quoted: true, short: "my table"},
		{raw: `"a""b"`, name: `a"b`, quoted: true, short: `a"b`},
		{raw: `app."Users"`, name: "app.Users", quoted: true, namespace: "app", short: "Users"},
		{raw: "`a.b`", name: "a.b", quoted: true, short: "a.b"},
		{raw: `"my.schema".users`, name: "my.schema.users", quoted: true, namespace: "my.schema", short: "users"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id := NewIdentifier(tt.raw)
			assert.Equal(t, tt.name, id.Name)
			assert.Equal(t, tt.quoted, id.Quoted)
			assert.Equal(t, tt.namespace, id.Namespace())
			assert.Equal(t, tt.short, id.ShortName())
		})
	}
}

func TestSplitIdentifier(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitIdentifier("a.b"))
	assert.Equal(t, []string{`"a.b"`, "c"}, SplitIdentifier(`"a.b".c`))
	assert.Equal(t, []string{"[x.y]"}, SplitIdentifier("[x.y]"))
}

func TestUnwrapQuotes(t *testing.T) {
	s, ok := UnwrapQuotes("`a``b`")
	assert.True(t, ok)
	assert.Equal(t, "a`b", s)

	s, ok = UnwrapQuotes("plain")
	assert.False(t, ok)
	assert.Equal(t, "plain", s)

	_, ok = UnwrapQuotes(`"unterminated`)
	assert.False(t, ok)
}

func TestIdentifierRawRoundTrip(t *testing.T) {
	for _, raw := range []string{"users", `"Users"`, "app.`Order`", "`a``b`", "`a.b`", "`my.schema`.users"} {
		id := NewIdentifier(raw)
		assert.Equal(t, id, NewIdentifier(id.Raw()), raw)
	}
}

func TestQuotedName(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"users", "users"},
		{"user", `"user"`},
		{"USER", `"USER"`},
		{`"Users"`, `"Users"`},
		{"app.order", `app."order"`},
		{"my-table", `"my-table"`},
		{"1st", `"1st"`},
		{`"a""b"`, `"a""b"`},
		{"`a.b`", `"a.b"`},
		{"`my.schema`.users", `"my.schema"."users"`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewIdentifier(tt.raw).QuotedName(doubleQuoter{}))
		})
	}
}

func TestQuoteNames(t *testing.T) {
	assert.Equal(t, []string{"id", `"select"`}, QuoteNames(doubleQuoter{}, []string{"id", "select"}))
	assert.Equal(t, []string{`"a.b"`, `"x.y"`}, QuoteNames(doubleQuoter{}, []string{"`a.b`", "x.y"}))
}

func TestNewName(t *testing.T) {
	tests := []struct {
		raw      string
		name     string
		quoted   bool
		rendered string
	}{
		{raw: "id", name: "id", rendered: "id"},
		{raw: "`a.b`", name: "a.b", quoted: true, rendered: `"a.b"`},
		{raw: `"idx.foo"`, name: "idx.foo", quoted: true, rendered: `"idx.foo"`},
		{raw: "a.b", name: "a.b", rendered: `"a.b"`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id := NewName(tt.raw)
			assert.Equal(t, tt.name, id.Name)
			assert.Equal(t, tt.quoted, id.Quoted)
			assert.Equal(t, []string{tt.name}, id.Segments())
			assert.Empty(t, id.Namespace())
			assert.Equal(t, tt.rendered, id.QuotedName(doubleQuoter{}))
		})
	}
}

func TestIdentifierQualify(t *testing.T) {
	tests := []struct {
		table    string
		name     Identifier
		expected string
	}{
		{table: "users", name: NewName("users_pkey"), expected: "users_pkey"},
		{table: "app.users", name: NewName("users_pkey"), expected: "app.users_pkey"},
		{table: "app.users", name: NewName("`pk.users`"), expected: `"app"."pk.users"`},
		{table: "app.users", name: NewIdentifier("other.seq"), expected: "other.seq"},
	}

	for _, tt := range tests {
		t.Run(tt.table+"/"+tt.name.Name, func(t *testing.T) {
			qualified := NewIdentifier(tt.table).Qualify(tt.name)
			assert.Equal(t, tt.expected, qualified.QuotedName(doubleQuoter{}))
		})
	}
}

func TestIdentifierEqualFold(t *testing.T) {
	assert.True(t, NewIdentifier("Users").EqualFold(NewIdentifier(`"users"`)))
	assert.Equal(t, "users", NewIdentifier("USERS").Normalized())
	assert.False(t, NewIdentifier("`a.b`").EqualFold(NewIdentifier("a.b")))
	assert.True(t, NewIdentifier("`a.b`").EqualFold(NewName("A.B")))
}
