package platform

import (
	"context"
	"log/slog"

	"github.com/sqldef/ddlgen/schema"
)

type EventKind string

const (
	EventCreateTable            EventKind = "create-table"
	EventCreateTableColumn      EventKind = "create-table-column"
	EventDropTable              EventKind = "drop-table"
	EventAlterTable             EventKind = "alter-table"
	EventAlterTableAddColumn    EventKind = "alter-table-add-column"
	EventAlterTableRemoveColumn EventKind = "alter-table-remove-column"
	EventAlterTableChangeColumn EventKind = "alter-table-change-column"
	EventAlterTableRenameColumn EventKind = "alter-table-rename-column"
)

// Event describes one logical rendering step. Column is set for column
// events, OldName for renames. SQL holds the statements produced by the step
// when it produces them on its own.
type Event struct {
	Kind    EventKind
	Table   schema.Identifier
	Column  *schema.Column
	OldName schema.Identifier
	SQL     []string
}

// Observer receives rendering notifications. It cannot change the output.
type Observer interface {
	Notify(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) {
	f(e)
}

// LogObserver forwards every event to logger at debug level.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(e Event) {
		attrs := []slog.Attr{slog.String("table", e.Table.Name)}
		if e.Column != nil {
			attrs = append(attrs, slog.String("column", e.Column.Name.Name))
		}
		if e.OldName.Name != "" {
			attrs = append(attrs, slog.String("old_name", e.OldName.Name))
		}
		if len(e.SQL) > 0 {
			attrs = append(attrs, slog.Any("sql", e.SQL))
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, string(e.Kind), attrs...)
	})
}

// RenderConfig is the resolved form of a list of RenderOption.
type RenderConfig struct {
	Observer Observer
	// SkipDrop suppresses the statements dropping whole tables, sequences and
	// orphaned foreign keys.
	SkipDrop bool
}

type RenderOption func(*RenderConfig)

func WithObserver(o Observer) RenderOption {
	return func(c *RenderConfig) { c.Observer = o }
}

func WithSkipDrop(skip bool) RenderOption {
	return func(c *RenderConfig) { c.SkipDrop = skip }
}

func ApplyRenderOptions(opts []RenderOption) RenderConfig {
	var c RenderConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Notify delivers e to the configured observer, if any.
func (c RenderConfig) Notify(e Event) {
	if c.Observer != nil {
		c.Observer.Notify(e)
	}
}
