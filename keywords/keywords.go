// Package keywords holds the per-dialect reserved word lists. An identifier
// that collides with one of them must be quoted when rendered.
package keywords

import (
	"slices"
	"strings"
)

type KeywordList interface {
	Name() string
	IsKeyword(word string) bool
}

// List is a static, read-only KeywordList. It is safe for concurrent use.
type List struct {
	name  string
	words map[string]struct{}
}

func newList(name string, fields string) *List {
	l := &List{name: name, words: map[string]struct{}{}}
	for _, word := range strings.Fields(fields) {
		l.words[strings.ToUpper(word)] = struct{}{}
	}
	return l
}

func (l *List) Name() string {
	return l.name
}

// IsKeyword reports whether word is reserved. Matching is case-insensitive.
func (l *List) IsKeyword(word string) bool {
	_, ok := l.words[strings.ToUpper(word)]
	return ok
}

// Words returns the upper-cased reserved words in sorted order.
func (l *List) Words() []string {
	words := make([]string, 0, len(l.words))
	for word := range l.words {
		words = append(words, word)
	}
	slices.Sort(words)
	return words
}

var lists = map[string]*List{
	MySQL.Name():      MySQL,
	PostgreSQL.Name(): PostgreSQL,
	SQLite.Name():     SQLite,
	SQLServer.Name():  SQLServer,
}

// ByName looks a list up by its dialect name ("mysql", "postgres", "sqlite3", "mssql").
func ByName(name string) (*List, bool) {
	l, ok := lists[strings.ToLower(name)]
	return l, ok
}
