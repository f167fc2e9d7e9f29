// Command composegen generates documentation models for composition
// handlers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

type CLI struct {
	Verbose bool   `help:"Log debug output." short:"v"`
	Config  string `help:"Config file (default: composegen.toml or composegen.yaml in the working directory)." short:"c" type:"path"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     GenCmd     `cmd:"" help:"Generate composition models and documentation handlers."`
	Check   CheckCmd   `cmd:"" help:"Report diagnostics without generating files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	app.Println(Version())
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "composegen",
		Level:  level,
	})
	return slog.New(handler)
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("composegen"),
		kong.Description("Generate documentation for composed HTTP responses."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     newLogger(cli.Verbose),
		ConfigFile: cli.Config,
		ctx:        ctx,
	}
	err := kctx.Run(app)
	kctx.FatalIfErrorf(err)
}
