// Package ddlgen compares two YAML schema snapshots and renders, or applies,
// the DDL that migrates one into the other.
package ddlgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/term"

	"github.com/sqldef/ddlgen/database"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
)

type Options struct {
	// DesiredFile is read from stdin when it is "-".
	DesiredFile string
	// CurrentFile is the snapshot of the live schema. Empty means no tables.
	CurrentFile string
	DryRun      bool
	BeforeApply string
	Config      database.GeneratorConfig
}

// Run loads both snapshots, compares them and renders the DDL for p.
func Run(p platform.Platform, options *Options) ([]string, error) {
	current, err := LoadSchema(options.CurrentFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", options.CurrentFile, err)
	}
	desired, err := LoadSchema(options.DesiredFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", options.DesiredFile, err)
	}
	return Generate(p, current, desired, options.Config)
}

// Generate renders the DDL migrating current into desired. Tables outside
// config's target and skip lists are left alone, and whole tables are only
// dropped with EnableDrop.
func Generate(p platform.Platform, current, desired *schema.Schema, config database.GeneratorConfig) ([]string, error) {
	keep, err := tableFilter(config)
	if err != nil {
		return nil, err
	}
	current, desired = current.Filter(keep), desired.Filter(keep)

	diff, err := schema.CompareSchemas(current, desired, schema.WithConcurrency(config.Concurrency))
	if err != nil {
		return nil, err
	}
	return platform.SchemaDiffSQL(p, diff,
		platform.WithSkipDrop(!config.EnableDrop),
		platform.WithObserver(platform.LogObserver(slog.Default())),
	)
}

// Apply runs Run and executes the result on d, or only prints it with
// DryRun. Output goes to logger.
func Apply(ctx context.Context, d database.Database, p platform.Platform, options *Options, logger database.Logger) error {
	ddls, err := Run(p, options)
	if err != nil {
		return err
	}
	if len(ddls) == 0 {
		logger.Println("-- Nothing is modified --")
		return nil
	}

	runOptions := database.RunOptions{BeforeApply: options.BeforeApply, Logger: logger}
	if options.DryRun {
		database.ShowDDLs(logger, ddls, runOptions)
		return nil
	}
	return database.RunDDLs(ctx, d, ddls, runOptions)
}

// tableFilter accepts a table when it is listed in TargetTables, if any are
// given, and matches none of the SkipTables patterns. Patterns are regular
// expressions matched against the whole name.
func tableFilter(config database.GeneratorConfig) (func(string) bool, error) {
	targets := map[string]bool{}
	for _, name := range config.TargetTables {
		targets[strings.ToLower(name)] = true
	}
	var skips []*regexp.Regexp
	for _, pattern := range config.SkipTables {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("skip_tables: %w", err)
		}
		skips = append(skips, re)
	}

	return func(table string) bool {
		if len(targets) > 0 && !targets[strings.ToLower(table)] {
			return false
		}
		for _, re := range skips {
			if re.MatchString(table) {
				return false
			}
		}
		return true
	}, nil
}

// LoadSchema parses the YAML snapshot at path. "" is the empty schema and "-"
// reads stdin, which must be piped.
func LoadSchema(path string) (*schema.Schema, error) {
	switch path {
	case "":
		return schema.NewSchema(), nil
	case "-":
		buf, err := ReadStdin(os.Stdin)
		if err != nil {
			return nil, err
		}
		return schema.ParseYAML(buf)
	}
	return schema.LoadFile(path)
}

// ReadStdin reads f unless it is an interactive terminal.
func ReadStdin(f *os.File) ([]byte, error) {
	if term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("stdin is not piped")
	}
	return io.ReadAll(f)
}
