// Command dbu runs statements against any database the dbunified package
// supports, using the same configuration mapping as library callers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/fbourgeois24/db-unified/internal/config"
	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitConfig     = 2
	ExitConnection = 3
	ExitStatement  = 4
)

// GlobalFlags are accepted before the subcommand.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
}

// command carries the streams and global flags every subcommand shares.
type command struct {
	globals GlobalFlags
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dbu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)

	var globals GlobalFlags
	fs.StringVarP(&globals.ConfigPath, "config", "c", os.Getenv("DBU_CONFIG"), "Configuration document (path, file://, http(s):// or s3://)")
	fs.BoolVar(&globals.JSON, "json", false, "Output as JSON")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress informational output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: dbu [global options] <command> [options]

Commands:
  run     Execute a statement and print its result
  ping    Connect to the configured database and disconnect
  init    Write a configuration template

Global options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Run 'dbu <command> --help' for command options.
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return ExitUsage
	}

	c := &command{globals: globals, stdin: stdin, stdout: stdout, stderr: stderr}
	switch rest[0] {
	case "run", "query":
		return c.runStatement(ctx, rest[1:])
	case "ping":
		return c.runPing(ctx, rest[1:])
	case "init":
		return c.runInit(ctx, rest[1:])
	case "help":
		fs.Usage()
		return ExitOK
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", rest[0])
		fs.Usage()
		return ExitUsage
	}
}

// connFlags are the explicit connection overrides shared by run and ping.
type connFlags struct {
	kind     string
	database string
	host     string
	port     string
	user     string
	password string
	sslMode  string
	options  string
}

func (cf *connFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&cf.kind, "type", "", "Database type (postgresql, mariadb, mysql, sqlserver, sqlite, surrealdb)")
	fs.StringVar(&cf.database, "name", "", "Database name (file path for sqlite)")
	fs.StringVar(&cf.host, "addr", "", "Server address")
	fs.StringVar(&cf.port, "port", "", "Server port")
	fs.StringVar(&cf.user, "user", "", "User name")
	fs.StringVar(&cf.password, "passwd", "", "Password")
	fs.StringVar(&cf.sslMode, "sslmode", "", "SSL mode (disable, allow, prefer, require, verify-ca, verify-full)")
	fs.StringVar(&cf.options, "options", "", "Backend-specific connection options")
}

// fields returns only the overrides given on the command line.
func (cf *connFlags) fields(fs *flag.FlagSet) dbunified.Fields {
	pick := func(name, value string) *string {
		if fs.Changed(name) {
			return dbunified.String(value)
		}
		return nil
	}
	return dbunified.Fields{
		Database: pick("name", cf.database),
		Host:     pick("addr", cf.host),
		Port:     pick("port", cf.port),
		User:     pick("user", cf.user),
		Password: pick("passwd", cf.password),
		SSLMode:  pick("sslmode", cf.sslMode),
		Options:  pick("options", cf.options),
	}
}

// openHandle loads configuration and builds a handle from it and the
// command line overrides. The returned code is ExitOK on success.
func (c *command) openHandle(ctx context.Context, fs *flag.FlagSet, cf *connFlags) (*dbunified.Handle, int) {
	cfg, err := config.Load(ctx, c.globals.ConfigPath)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return nil, ExitConfig
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(c.stderr, "Error: invalid configuration: %v\n", err)
		return nil, ExitConfig
	}

	logger := cfg.NewLogger(c.stderr)
	slog.SetDefault(logger)

	opts := []dbunified.Option{
		dbunified.WithConfig(cfg.Mapping()),
		dbunified.WithFields(cf.fields(fs)),
		dbunified.WithLogger(logger),
	}
	if fs.Changed("type") {
		opts = append(opts, dbunified.WithKind(dbunified.Kind(strings.ToLower(cf.kind))))
	}
	if probe := cfg.Prober(); probe != nil {
		opts = append(opts, dbunified.WithProbe(probe))
	}

	h, err := dbunified.New(opts...)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return nil, ExitConfig
	}
	return h, ExitOK
}

// exitCode maps a dbunified error onto the command's exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, dbunified.ErrConfig):
		return ExitConfig
	case errors.Is(err, dbunified.ErrUnreachable), errors.Is(err, dbunified.ErrNotConnected):
		return ExitConnection
	default:
		return ExitStatement
	}
}
