// Package sheet parses sheet command flags and dispatches its subcommands.
package sheet

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	entrypoint "github.com/louisbranch/traitsheet/internal/platform/cmd"
)

// Config holds sheet command configuration.
type Config struct {
	DBPath    string `env:"DB_PATH" envDefault:"data/sheet.db"`
	RulesPath string `env:"RULES_PATH"`
	Port      int    `env:"PORT" envDefault:"8093"`
	Addr      string `env:"ADDR" envDefault:"localhost:8093"`

	// Args holds the subcommand and its own arguments.
	Args []string
}

// ErrUsage reports a missing or unknown subcommand.
var ErrUsage = errors.New("usage: sheet [-db path] [-rules path] [-port n] [-addr host:port] <command> [args]")

type command struct {
	summary string
	run     func(ctx context.Context, cfg Config, args []string, out io.Writer) error
}

var commands = map[string]command{
	"parse":        {"parse notation and print each recognized piece", runParse},
	"format":       {"render an asset from its parts", runFormat},
	"new":          {"create a character", runNew},
	"list":         {"list stored characters", runList},
	"show":         {"print a character sheet", runShow},
	"set":          {"rate a skill or attribute, or set a drive statement", runSet},
	"add-asset":    {"add an asset written in notation", runAddAsset},
	"add-trait":    {"add a trait written in notation", runAddTrait},
	"add-talent":   {"add a talent", runAddTalent},
	"remove":       {"remove a talent, trait or asset", runRemove},
	"delete":       {"delete a character", runDelete},
	"serve":        {"serve the sheet gRPC API", runServe},
	"remote-parse": {"parse one asset through a running sheet server", runRemoteParse},
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the character SQLite database")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Optional YAML or TOML file with skill and attribute schemas")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port for the sheet gRPC server")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address of a running sheet gRPC server")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// Run executes the configured subcommand.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if len(cfg.Args) == 0 {
		writeUsage(out)
		return ErrUsage
	}
	name := strings.ToLower(cfg.Args[0])
	cmd, ok := commands[name]
	if !ok {
		writeUsage(out)
		return fmt.Errorf("unknown command %q: %w", cfg.Args[0], ErrUsage)
	}
	service := entrypoint.ServiceSheet
	if name == "serve" {
		service = entrypoint.ServiceSheetServer
	}
	return entrypoint.RunWithTelemetry(ctx, service, func(ctx context.Context) error {
		return cmd.run(ctx, cfg, cfg.Args[1:], out)
	})
}

func writeUsage(out io.Writer) {
	fmt.Fprintln(out, ErrUsage.Error())
	fmt.Fprintln(out, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s %s\n", name, commands[name].summary)
	}
}

// newFlagSet returns a silent flag set for one subcommand.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
