package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
)

const usage = `usage: quakemap [flags] <command> [args]

commands:
  replay <script>...   run a command script ("-" reads stdin)
  export [dir]         write the saved drawings as GeoJSON
  list                 print the saved drawings
  quakes               fetch the earthquake feed once and print it
  watch                keep refreshing the earthquake feed until interrupted
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "quakemap:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	flags := pflag.NewFlagSet("quakemap", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configDir := flags.StringP("config", "c", ".", "directory containing quakemap.cfg.json and .env")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("storage", "file", "storage backend: memory, file, sqlite or postgres")
	yes := flags.BoolP("yes", "y", false, "answer yes to confirmation prompts")
	at := flags.String("at", "", `position reported to :LOCATE: as "lat,lng"`)
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *showVersion {
		_, err := fmt.Fprintf(out, "quakemap %s (built %s)\n", Version, BuildDate)
		return err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage"))

	rt, err := setup(ctx, runtimeOptions{ConfigDir: *configDir, Confirm: *yes, At: *at})
	if err != nil {
		return err
	}
	defer rt.Close()

	switch cmd, cmdArgs := strings.ToLower(rest[0]), rest[1:]; cmd {
	case "replay":
		return rt.replay(ctx, cmdArgs, stdin, out)
	case "export":
		return rt.export(cmdArgs, out)
	case "list":
		return rt.list(out)
	case "quakes":
		return rt.quakes(ctx, out)
	case "watch":
		return rt.watch(ctx, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
