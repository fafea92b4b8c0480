// fix-tests re-renders the YAML render fixtures of a dialect and rewrites the
// expectations that no longer match the renderer output.
//
//	go run ./cmd/fix-tests --dialect=postgres platform/postgres/testdata/*.yml
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"golang.org/x/mod/semver"

	"github.com/sqldef/ddlgen"
	"github.com/sqldef/ddlgen/database"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/platform/all"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/testutil"
)

// TestCase mirrors testutil.TestCase with the tags needed to write it back.
type TestCase struct {
	Current    string  `yaml:"current,omitempty"`
	Desired    string  `yaml:"desired,omitempty"`
	Up         *string `yaml:"up,omitempty"`
	Down       *string `yaml:"down,omitempty"`
	Error      *string `yaml:"error,omitempty"`
	MinVersion string  `yaml:"min_version,omitempty"`
	MaxVersion string  `yaml:"max_version,omitempty"`
	Flavor     string  `yaml:"flavor,omitempty"`
	EnableDrop *bool   `yaml:"enable_drop,omitempty"`
}

type options struct {
	Dialect string `short:"d" long:"dialect" description:"Dialect whose renderer produces the expectations" value-name:"name" required:"true"`
	Version string `long:"version" description:"Server version the cases are rendered for (mysql, mariadb)" value-name:"version"`
	DryRun  bool   `long:"dry-run" description:"Only report the cases that would change"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "--dialect=name [OPTIONS] fixture.yml..."
	files, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	if err := run(opts, files); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(opts options, files []string) error {
	if len(files) == 0 {
		return errors.New("no fixture files given")
	}
	p, err := all.New(opts.Dialect, all.WithVersion(opts.Version))
	if err != nil {
		return err
	}

	total := 0
	for _, file := range files {
		fixed, err := fixFile(file, p, opts.Version, opts.DryRun)
		if err != nil {
			return err
		}
		for _, name := range fixed {
			fmt.Printf("Fixed test: %s in %s\n", name, filepath.Base(file))
		}
		total += len(fixed)
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Files: %d\n", len(files))
	fmt.Printf("Fixed: %d\n", total)
	return nil
}

// fixFile re-renders every case of file on p and returns the names of the
// cases whose expectations changed. The case order of the file is kept.
func fixFile(file string, p platform.Platform, version string, dryRun bool) ([]string, error) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var cases yaml.MapSlice
	if err := yaml.Unmarshal(buf, &cases); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	var fixed []string
	for i, item := range cases {
		name := fmt.Sprint(item.Key)

		raw, err := yaml.Marshal(item.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", file, name, err)
		}
		var test TestCase
		dec := yaml.NewDecoder(bytes.NewReader(raw), yaml.DisallowUnknownField())
		if err := dec.Decode(&test); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", file, name, err)
		}

		if skipped(test, p, version) {
			continue
		}
		changed, err := fixCase(&test, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", file, name, err)
		}
		if changed {
			cases[i].Value = test
			fixed = append(fixed, name)
		}
	}

	if len(fixed) == 0 || dryRun {
		return fixed, nil
	}

	out, err := yaml.MarshalWithOptions(cases, yaml.UseLiteralStyleIfMultiline(true))
	if err != nil {
		return nil, err
	}
	return fixed, os.WriteFile(file, out, 0o644)
}

func skipped(test TestCase, p platform.Platform, version string) bool {
	if test.Flavor != "" {
		if excluded, ok := strings.CutPrefix(test.Flavor, "!"); ok {
			if excluded == p.Name() {
				return true
			}
		} else if test.Flavor != p.Name() {
			return true
		}
	}
	if version == "" {
		return false
	}
	v := "v" + version
	if test.MinVersion != "" && semver.Compare(v, "v"+test.MinVersion) < 0 {
		return true
	}
	if test.MaxVersion != "" && semver.Compare(v, "v"+test.MaxVersion) > 0 {
		return true
	}
	return false
}

// fixCase replaces the up, down and error expectations of test with what p
// renders now, reporting whether any of them changed.
func fixCase(test *TestCase, p platform.Platform) (bool, error) {
	current, err := schema.ParseYAML([]byte(test.Current))
	if err != nil {
		return false, fmt.Errorf("current schema: %w", err)
	}
	desired, err := schema.ParseYAML([]byte(test.Desired))
	if err != nil {
		return false, fmt.Errorf("desired schema: %w", err)
	}
	config := database.GeneratorConfig{EnableDrop: test.EnableDrop == nil || *test.EnableDrop}

	changed := false
	up, err := ddlgen.Generate(p, current, desired, config)
	if err != nil {
		message := err.Error()
		if test.Error == nil || *test.Error != message {
			test.Error = &message
			test.Up, test.Down = nil, nil
			changed = true
		}
		return changed, nil
	}
	if test.Error != nil {
		test.Error = nil
		changed = true
	}
	if replace(&test.Up, testutil.JoinDDLs(up)) {
		changed = true
	}

	if test.Down != nil {
		down, err := ddlgen.Generate(p, desired, current, config)
		if err != nil {
			return false, fmt.Errorf("desired → current: %w", err)
		}
		if replace(&test.Down, testutil.JoinDDLs(down)) {
			changed = true
		}
	}
	return changed, nil
}

func replace(field **string, value string) bool {
	if *field != nil && strings.TrimSpace(**field) == strings.TrimSpace(value) {
		return false
	}
	*field = &value
	return true
}
