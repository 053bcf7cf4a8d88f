package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/fbourgeois24/db-unified/internal/config"
	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

const defaultConfigPath = "dbu.yaml"

// templatePorts are the default server ports written into new templates.
var templatePorts = map[dbunified.Kind]int{
	dbunified.KindPostgreSQL: 5432,
	dbunified.KindMariaDB:    3306,
	dbunified.KindMySQL:      3306,
	dbunified.KindSQLServer:  1433,
	dbunified.KindSurrealDB:  8000,
}

// runInit writes a configuration template.
func (c *command) runInit(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	force := fs.Bool("force", false, "Overwrite an existing local file")
	kind := fs.String("type", string(dbunified.KindPostgreSQL), "Database type of the template")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, `Usage: dbu init [options] [path]

Description:
  Write a configuration template to path (default: %s). The path may be
  local, file:// or s3://bucket/key.

Options:
`, defaultConfigPath)
		fs.PrintDefaults()
		fmt.Fprintf(c.stderr, `
Examples:
  dbu init
  dbu init --type sqlite --force
  dbu init --type mariadb s3://ops/dbu/staging.yaml

`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	path := defaultConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	database, err := templateDatabase(dbunified.Kind(strings.ToLower(*kind)))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitUsage
	}

	if isLocalPath(path) && !*force {
		if _, err := os.Stat(strings.TrimPrefix(path, "file://")); err == nil {
			fmt.Fprintf(c.stderr, "Error: %s already exists\n", path)
			fmt.Fprintf(c.stderr, "Use --force to overwrite\n")
			return ExitUsage
		}
	}

	cfg := config.Default()
	cfg.Database = database
	if err := config.Save(ctx, cfg, path); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitConfig
	}

	if !c.globals.Quiet {
		fmt.Fprintf(c.stdout, "Created %s\n", path)
	}
	return ExitOK
}

func templateDatabase(kind dbunified.Kind) (map[string]any, error) {
	if kind == dbunified.KindSQLite {
		return map[string]any{
			dbunified.KeyType: string(kind),
			dbunified.KeyName: "dbu.sqlite3",
		}, nil
	}

	port, ok := templatePorts[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q", kind)
	}
	return map[string]any{
		dbunified.KeyType:     string(kind),
		dbunified.KeyName:     "app",
		dbunified.KeyAddr:     "localhost",
		dbunified.KeyPort:     port,
		dbunified.KeyUser:     "app",
		dbunified.KeyPassword: "",
		dbunified.KeySSLMode:  dbunified.SSLAllow,
	}, nil
}

func isLocalPath(path string) bool {
	return !strings.Contains(path, "://") || strings.HasPrefix(strings.ToLower(path), "file://")
}
