package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/fridge-monitor/internal/bootstrap"
	"github.com/angelmondragon/fridge-monitor/internal/responses"
	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/config"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
)

const serviceName = "fridge-cli"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs one CLI invocation and returns the process exit code. Results
// and error envelopes go to stdout; logs go to stderr.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	c.logg = logger.New(logger.Options{ServiceName: serviceName, Output: stderr})
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if pkgerrors.As(err) == nil && !c.ran {
			// cobra rejected the invocation before any command ran
			err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		return responses.WriteError(ctx, c.logg, stdout, err)
	}
	return 0
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	pretty bool

	logg *logger.Logger
	app  *bootstrap.App
	ran  bool
}

// offline marks commands that never touch the store.
const offline = "offline"

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fridge",
		Short:         "Track what is in the fridge",
		Long:          "fridge records scans of fridge contents, tracks expiry, raises alerts and suggests recipes.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.ran = true
			if cmd.Annotations[offline] == "true" {
				return nil
			}
			return c.open(cmd)
		},
	}
	cmd.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "Indent JSON output")

	cmd.AddCommand(
		c.scanInCmd(),
		c.scanOutCmd(),
		c.itemsCmd(),
		c.itemCmd(),
		c.patchCmd(),
		c.eventsCmd(),
		c.alertsCmd(),
		c.recommendCmd(),
		c.relatedCmd(),
		c.recipesCmd(),
		c.settingsCmd(),
		c.macrosCmd(),
		c.imageCmd(),
	)
	return cmd
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid configuration: %v", err))
	}

	c.logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      c.stderr,
	})

	ctx := c.logg.WithRequestID(cmd.Context(), clock.NewID())
	ctx = c.logg.WithFields(ctx, map[string]any{
		"command": cmd.Name(),
		"backend": cfg.Store.Backend,
	})
	cmd.SetContext(ctx)

	app, err := bootstrap.New(ctx, cfg, c.logg, bootstrap.Options{})
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.logg.Error(context.Background(), "error closing resources", err)
	}
	c.app = nil
}

func (c *cli) write(data any) error {
	return responses.WriteSuccess(c.stdout, c.pretty, data)
}
