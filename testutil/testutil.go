// Package testutil runs the YAML render fixtures shared by the dialect packages.
package testutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/util"
)

var stripHeredocRegex = regexp.MustCompilePOSIX("^\t*")

type TestCase struct {
	Current    string  // YAML schema, default: empty schema
	Desired    string  // YAML schema, default: empty schema
	Up         *string // expected DDL for current → desired
	Down       *string // expected DDL for desired → current, optional
	Error      *string // expected error message of current → desired
	MinVersion string  `yaml:"min_version"`
	MaxVersion string  `yaml:"max_version"`
	Flavor     string  // platform name the case is restricted to, "!name" excludes one
	EnableDrop *bool   `yaml:"enable_drop"` // default: true
}

func init() {
	util.InitSlog()

	// Keep test output clean unless LOG_LEVEL asks for more.
	if os.Getenv("LOG_LEVEL") == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		slog.SetDefault(slog.New(handler))
	}
}

func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	ret := map[string]TestCase{}
	testFileMap := map[string]string{}

	for _, file := range files {
		var tests map[string]*TestCase

		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&tests); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, test := range tests {
			if test.Up == nil && test.Error == nil {
				return nil, fmt.Errorf("%s: test case '%s': either 'up' or 'error' must be specified", file, name)
			}
			if test.Down != nil && test.Up == nil {
				return nil, fmt.Errorf("%s: test case '%s': 'down' requires 'up'", file, name)
			}
			if test.EnableDrop == nil {
				enableDrop := true
				test.EnableDrop = &enableDrop
			}
			if existingFile, ok := testFileMap[name]; ok {
				return nil, fmt.Errorf("duplicate test case name '%s': defined in both '%s' and '%s'", name, existingFile, file)
			}
			testFileMap[name] = file
			ret[name] = *test
		}
	}

	return ret, nil
}

// RunTest renders current → desired on p and compares the output with the
// expectations of test. It returns the statements of the forward migration so
// that callers can check them further, e.g. with a dialect parser.
func RunTest(t *testing.T, p platform.Platform, test TestCase, version string) []string {
	t.Helper()

	if test.MinVersion != "" && compareVersion(t, version, test.MinVersion) < 0 {
		t.Skipf("Version '%s' is smaller than min_version '%s'", version, test.MinVersion)
	}
	if test.MaxVersion != "" && compareVersion(t, version, test.MaxVersion) > 0 {
		t.Skipf("Version '%s' is larger than max_version '%s'", version, test.MaxVersion)
	}
	if test.Flavor != "" {
		if excluded, ok := strings.CutPrefix(test.Flavor, "!"); ok {
			if excluded == p.Name() {
				t.Skipf("Test excludes flavor '%s'", excluded)
			}
		} else if test.Flavor != p.Name() {
			t.Skipf("Test flavor '%s' does not match current flavor '%s'", test.Flavor, p.Name())
		}
	}

	current, err := schema.ParseYAML([]byte(test.Current))
	require.NoError(t, err, "current schema")
	desired, err := schema.ParseYAML([]byte(test.Desired))
	require.NoError(t, err, "desired schema")

	opts := []platform.RenderOption{platform.WithSkipDrop(!*test.EnableDrop)}

	ddls, err := render(p, current, desired, opts)
	if test.Error != nil {
		if assert.Error(t, err, "current → desired should fail") {
			assert.Equal(t, *test.Error, err.Error())
		}
		return nil
	}
	require.NoError(t, err, "current → desired")
	assert.Equal(t, strings.TrimSpace(*test.Up), strings.TrimSpace(JoinDDLs(ddls)), "current → desired should produce 'up' DDL")

	idempotent, err := render(p, desired, desired, opts)
	require.NoError(t, err)
	assert.Empty(t, idempotent, "desired → desired should produce no DDL")

	if test.Down != nil {
		down, err := render(p, desired, current, opts)
		require.NoError(t, err, "desired → current")
		assert.Equal(t, strings.TrimSpace(*test.Down), strings.TrimSpace(JoinDDLs(down)), "desired → current should produce 'down' DDL")
	}
	return ddls
}

func render(p platform.Platform, from, to *schema.Schema, opts []platform.RenderOption) ([]string, error) {
	diff, err := schema.CompareSchemas(from, to)
	if err != nil {
		return nil, err
	}
	return platform.SchemaDiffSQL(p, diff, opts...)
}

// left < right: compareVersion() < 0
// left = right: compareVersion() = 0
// left > right: compareVersion() > 0
func compareVersion(t *testing.T, leftVersion string, rightVersion string) int {
	leftVersions := strings.Split(leftVersion, ".")
	rightVersions := strings.Split(rightVersion, ".")

	// Compare only specified segments (e.g., "10.0" vs "10" -> compare "10" and "10")
	length := min(len(leftVersions), len(rightVersions))

	for i := range length {
		left, err := parseVersionSegment(leftVersions[i])
		if err != nil {
			t.Fatal(err)
		}
		right, err := parseVersionSegment(rightVersions[i])
		if err != nil {
			t.Fatal(err)
		}

		if left < right {
			return -1
		} else if left > right {
			return 1
		}
	}
	return 0
}

// parseVersionSegment extracts the leading numeric part from a version segment,
// e.g. "11-MariaDB" -> 11.
func parseVersionSegment(segment string) (int, error) {
	end := 0
	for end < len(segment) && segment[end] >= '0' && segment[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("no numeric prefix in version segment: %q", segment)
	}
	return strconv.Atoi(segment[:end])
}

// JoinDDLs terminates every statement with ";\n", the format the CLI prints.
func JoinDDLs(ddls []string) string {
	var builder strings.Builder
	for _, ddl := range ddls {
		builder.WriteString(ddl)
		builder.WriteString(";\n")
	}
	return builder.String()
}

// StringLogger collects everything written through the database.Logger methods.
type StringLogger struct {
	buf strings.Builder
}

func (l *StringLogger) Print(v ...any) {
	l.buf.WriteString(fmt.Sprint(v...))
}

func (l *StringLogger) Printf(format string, v ...any) {
	l.buf.WriteString(fmt.Sprintf(format, v...))
}

func (l *StringLogger) Println(v ...any) {
	l.buf.WriteString(fmt.Sprint(v...))
	l.buf.WriteString("\n")
}

func (l *StringLogger) String() string {
	return l.buf.String()
}

func StripHeredoc(heredoc string) string {
	heredoc = strings.TrimPrefix(heredoc, "\n")
	return stripHeredocRegex.ReplaceAllLiteralString(heredoc, "")
}
