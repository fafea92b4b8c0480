package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/sqldef/ddlgen"
	"github.com/sqldef/ddlgen/database"
	"github.com/sqldef/ddlgen/database/mssql"
	"github.com/sqldef/ddlgen/database/mysql"
	"github.com/sqldef/ddlgen/database/postgres"
	"github.com/sqldef/ddlgen/database/sqlite3"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/platform/all"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/util"
)

// version and revision are set via -ldflags
var version = "dev"
var revision = "HEAD"

var errHelp = errors.New("help requested")

type cliOptions struct {
	Dialect  string
	Database string
	DB       database.Config
	Prompt   bool
	Debug    bool
	Options  ddlgen.Options
}

var defaultPorts = map[string]int{
	"mysql":    3306,
	"mariadb":  3306,
	"postgres": 5432,
	"mssql":    1433,
}

func parseOptions(args []string) (*cliOptions, error) {
	var configs []database.GeneratorConfig
	var configErr error

	var opts struct {
		Dialect     string `short:"d" long:"dialect" description:"Target dialect (mysql, mariadb, postgres, sqlite3, mssql)" value-name:"name"`
		Current     string `long:"current" description:"YAML snapshot of the current schema; no tables when omitted" value-name:"current.yml"`
		DbName      string `long:"db" description:"Apply the DDL to this database (a file for sqlite3) instead of printing it" value-name:"db_name"`
		User        string `short:"U" long:"user" description:"Database user name" value-name:"user_name"`
		Password    string `short:"W" long:"password" description:"Database user password, overridden by $DDLGEN_PASSWORD" value-name:"password"`
		Host        string `long:"host" description:"Host to connect to" value-name:"host_name" default:"127.0.0.1"`
		Port        uint   `short:"p" long:"port" description:"Port to connect to; the dialect default when omitted" value-name:"port_num"`
		Socket      string `long:"socket" description:"Unix socket (directory for postgres) to connect through" value-name:"socket"`
		SslMode     string `long:"ssl-mode" description:"SSL mode passed to the driver" value-name:"ssl_mode"`
		SslCa       string `long:"ssl-ca" description:"File that contains list of trusted SSL Certificate Authorities (mysql)" value-name:"ssl_ca"`
		Prompt      bool   `long:"password-prompt" description:"Force database user password prompt"`
		DryRun      bool   `long:"dry-run" description:"Don't run DDLs but just show them"`
		EnableDrop  bool   `long:"enable-drop" description:"Enable dropping whole tables and sequences"`
		BeforeApply string `long:"before-apply" description:"Execute the given string before applying the regular DDLs"`
		Debug       bool   `long:"debug" description:"Dump the computed schema diff to stderr"`
		Help        bool   `long:"help" description:"Show this help"`
		Version     bool   `long:"version" description:"Show this version"`

		Config       func(string) `long:"config" description:"YAML file to specify: target_tables, skip_tables, enable_drop, mysql_version, type_mappings, concurrency (can be specified multiple times)"`
		ConfigInline func(string) `long:"config-inline" description:"YAML object with the keys of --config (can be specified multiple times)"`
	}

	opts.Config = func(path string) {
		config, err := database.ParseGeneratorConfig(path)
		configErr = errors.Join(configErr, err)
		configs = append(configs, config)
	}
	opts.ConfigInline = func(yaml string) {
		config, err := database.ParseGeneratorConfigString(yaml)
		configErr = errors.Join(configErr, err)
		configs = append(configs, config)
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "--dialect=name [OPTIONS] desired.yml"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if configErr != nil {
		return nil, configErr
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		return nil, errHelp
	}
	if opts.Version {
		fmt.Printf("%s (%s)\n", version, revision)
		return nil, errHelp
	}

	if opts.Dialect == "" {
		return nil, fmt.Errorf("--dialect is required (one of %s)", strings.Join(all.Names(), ", "))
	}
	if !all.IsKnown(opts.Dialect) {
		return nil, fmt.Errorf("unknown dialect %q (expected one of %s)", opts.Dialect, strings.Join(all.Names(), ", "))
	}
	if len(rest) != 1 {
		return nil, fmt.Errorf("expected exactly one desired schema file, but got: %v", rest)
	}

	config := database.MergeGeneratorConfigs(configs)
	if opts.EnableDrop {
		config.EnableDrop = true
	}

	password, ok := os.LookupEnv("DDLGEN_PASSWORD")
	if !ok {
		password = opts.Password
	}
	port := int(opts.Port)
	if port == 0 {
		p, _ := all.New(opts.Dialect)
		port = defaultPorts[p.Name()]
	}

	return &cliOptions{
		Dialect:  opts.Dialect,
		Database: opts.DbName,
		DB: database.Config{
			DbName:   opts.DbName,
			User:     opts.User,
			Password: password,
			Host:     opts.Host,
			Port:     port,
			Socket:   opts.Socket,
			SslMode:  opts.SslMode,
			SslCa:    opts.SslCa,
		},
		Prompt: opts.Prompt,
		Debug:  opts.Debug,
		Options: ddlgen.Options{
			DesiredFile: rest[0],
			CurrentFile: opts.Current,
			DryRun:      opts.DryRun,
			BeforeApply: opts.BeforeApply,
			Config:      config,
		},
	}, nil
}

func openDatabase(p platform.Platform, config database.Config) (database.Database, error) {
	switch p.Name() {
	case "mysql", "mariadb":
		return mysql.NewDatabase(config)
	case "postgres":
		return postgres.NewDatabase(config)
	case "sqlite3":
		return sqlite3.NewDatabase(config)
	case "mssql":
		return mssql.NewDatabase(config)
	}
	return nil, fmt.Errorf("no database driver for %s", p.Name())
}

// dumpDiff prints the schema diff between the snapshots of options to stderr.
func dumpDiff(options *ddlgen.Options) error {
	current, err := ddlgen.LoadSchema(options.CurrentFile)
	if err != nil {
		return err
	}
	desired, err := ddlgen.LoadSchema(options.DesiredFile)
	if err != nil {
		return err
	}
	diff, err := schema.CompareSchemas(current, desired)
	if err != nil {
		return err
	}
	_, err = pp.Fprintln(os.Stderr, diff)
	return err
}

func run(ctx context.Context, args []string, logger database.Logger) error {
	cli, err := parseOptions(args)
	if err != nil {
		return err
	}

	config := cli.Options.Config
	p, err := all.New(cli.Dialect, all.WithVersion(config.MySQLVersion), all.WithTypeMappings(config.TypeMappings))
	if err != nil {
		return err
	}

	if cli.Debug {
		if err := dumpDiff(&cli.Options); err != nil {
			return err
		}
	}

	if cli.Database == "" {
		ddls, err := ddlgen.Run(p, &cli.Options)
		if err != nil {
			return err
		}
		if len(ddls) == 0 {
			logger.Println("-- Nothing is modified --")
			return nil
		}
		for _, ddl := range ddls {
			logger.Printf("%s;\n", ddl)
		}
		return nil
	}

	if cli.Prompt {
		fmt.Fprint(os.Stderr, "Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		cli.DB.Password = string(pass)
	}

	var db database.Database
	if cli.Options.DryRun {
		db = database.NewDryRunDatabase()
	} else if db, err = openDatabase(p, cli.DB); err != nil {
		return err
	}
	defer db.Close()

	return ddlgen.Apply(ctx, db, p, &cli.Options, logger)
}

func main() {
	util.InitSlog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], database.StdoutLogger{}); err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		log.Fatal(err)
	}
}
