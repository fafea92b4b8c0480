// Package database applies rendered DDL to a live database. It never builds DDL itself.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/sqldef/ddlgen/util"
)

type Config struct {
	DbName   string
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
	SslMode  string
	SslCa    string

	// Only MySQL
	MySQLEnableCleartextPlugin bool
}

// GeneratorConfig tunes how a schema diff is rendered and applied.
type GeneratorConfig struct {
	TargetTables []string
	SkipTables   []string
	EnableDrop   bool
	MySQLVersion string
	// TypeMappings registers native type names onto logical type names.
	TypeMappings map[string]string
	// Concurrency bounds the table comparisons running at once. 0 compares
	// sequentially and a negative value removes the limit.
	Concurrency int
}

// Abstraction layer for multiple kinds of databases
type Database interface {
	DB() *sql.DB
	Close() error
}

type RunOptions struct {
	// SkipDrop leaves out statements dropping a whole table, sequence or schema.
	SkipDrop    bool
	BeforeApply string
	Logger      Logger
}

// RunDDLs executes ddls in order inside one transaction. A statement that
// cannot run in a transaction is executed on the connection pool instead.
// The transaction is rolled back on the first failure.
func RunDDLs(ctx context.Context, d Database, ddls []string, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger{}
	}

	transaction, err := d.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	logger.Println("-- Apply --")
	if len(opts.BeforeApply) > 0 {
		logger.Println(opts.BeforeApply)
		if _, err := transaction.ExecContext(ctx, opts.BeforeApply); err != nil {
			transaction.Rollback()
			return err
		}
	}
	for _, ddl := range ddls {
		if opts.SkipDrop && IsDropStatement(ddl) {
			logger.Printf("-- Skipped: %s;\n", ddl)
			continue
		}
		logger.Printf("%s;\n", ddl)
		var err error
		if TransactionSupported(ddl) {
			_, err = transaction.ExecContext(ctx, ddl)
		} else {
			_, err = d.DB().ExecContext(ctx, ddl)
		}
		if err != nil {
			transaction.Rollback()
			return fmt.Errorf("%s: %w", ddl, err)
		}
	}
	return transaction.Commit()
}

// ShowDDLs prints ddls the way RunDDLs would apply them, without a database.
func ShowDDLs(logger Logger, ddls []string, opts RunOptions) {
	logger.Println("-- dry run --")
	if len(opts.BeforeApply) > 0 {
		logger.Println(opts.BeforeApply)
	}
	for _, ddl := range ddls {
		if opts.SkipDrop && IsDropStatement(ddl) {
			logger.Printf("-- Skipped: %s;\n", ddl)
			continue
		}
		logger.Printf("%s;\n", ddl)
	}
}

func TransactionSupported(ddl string) bool {
	return !strings.Contains(strings.ToLower(ddl), "concurrently")
}

var dropPrefixes = []string{"DROP TABLE ", "DROP SEQUENCE ", "DROP SCHEMA "}

// IsDropStatement reports whether ddl drops a whole table, sequence or schema.
// Column, index and constraint drops belong to an ALTER and are not matched.
func IsDropStatement(ddl string) bool {
	upper := strings.ToUpper(strings.TrimSpace(ddl))
	for _, prefix := range dropPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

type generatorConfigFile struct {
	TargetTables string            `yaml:"target_tables"`
	SkipTables   string            `yaml:"skip_tables"`
	EnableDrop   bool              `yaml:"enable_drop"`
	MySQLVersion string            `yaml:"mysql_version"`
	TypeMappings map[string]string `yaml:"type_mappings"`
	Concurrency  int               `yaml:"concurrency"`
}

func ParseGeneratorConfig(configFile string) (GeneratorConfig, error) {
	if configFile == "" {
		return GeneratorConfig{}, nil
	}

	buf, err := os.ReadFile(configFile)
	if err != nil {
		return GeneratorConfig{}, err
	}
	config, err := ParseGeneratorConfigString(string(buf))
	if err != nil {
		return GeneratorConfig{}, fmt.Errorf("%s: %w", configFile, err)
	}
	return config, nil
}

// ParseGeneratorConfigString parses a YAML config. Table lists are newline
// separated strings, so that a YAML block scalar can hold one name per line.
func ParseGeneratorConfigString(yamlString string) (GeneratorConfig, error) {
	var config generatorConfigFile
	if err := yaml.UnmarshalStrict([]byte(yamlString), &config); err != nil {
		return GeneratorConfig{}, err
	}

	return GeneratorConfig{
		TargetTables: util.UniqueFold(splitLines(config.TargetTables)),
		SkipTables:   splitLines(config.SkipTables),
		EnableDrop:   config.EnableDrop,
		MySQLVersion: config.MySQLVersion,
		TypeMappings: config.TypeMappings,
		Concurrency:  config.Concurrency,
	}, nil
}

// MergeGeneratorConfigs merges configs in order. Later configs override the
// scalar settings and table lists they set, and add to the type mappings.
func MergeGeneratorConfigs(configs []GeneratorConfig) GeneratorConfig {
	var merged GeneratorConfig
	for _, config := range configs {
		if config.TargetTables != nil {
			merged.TargetTables = config.TargetTables
		}
		if config.SkipTables != nil {
			merged.SkipTables = config.SkipTables
		}
		if config.EnableDrop {
			merged.EnableDrop = true
		}
		if config.MySQLVersion != "" {
			merged.MySQLVersion = config.MySQLVersion
		}
		if config.Concurrency != 0 {
			merged.Concurrency = config.Concurrency
		}
		for dbType, logicalType := range config.TypeMappings {
			if merged.TypeMappings == nil {
				merged.TypeMappings = map[string]string{}
			}
			merged.TypeMappings[dbType] = logicalType
		}
	}
	return merged
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
