package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// runPing opens and closes a session to check the configuration.
func (c *command) runPing(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var cf connFlags
	cf.register(fs)
	fs.BoolVar(&c.globals.JSON, "json", c.globals.JSON, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, `Usage: dbu ping [options]

Description:
  Connect to the configured database, then disconnect. Exits 3 when the
  server cannot be reached or the login fails.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	h, code := c.openHandle(ctx, fs, &cf)
	if code != ExitOK {
		return code
	}

	start := time.Now()
	err := h.Connect(ctx)
	if err == nil {
		err = h.Disconnect()
	}
	elapsed := time.Since(start)
	if err != nil {
		_ = h.Close()
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitConnection
	}

	p := h.Profile()
	if c.globals.JSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"status":     "ok",
			"type":       p.Kind,
			"addr":       p.Host,
			"port":       p.Port,
			"name":       p.Database,
			"session_id": h.ID(),
			"elapsed_ms": elapsed.Milliseconds(),
		})
		return ExitOK
	}

	if !c.globals.Quiet {
		target := p.Database
		if p.Host != "" {
			target = fmt.Sprintf("%s:%s/%s", p.Host, p.Port, p.Database)
		}
		fmt.Fprintf(c.stdout, "ok: %s %s (%s)\n", p.Kind, target, elapsed.Round(time.Millisecond))
	}
	return ExitOK
}
