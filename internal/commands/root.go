// Package commands defines the freightmap command line.
package commands

import (
	"io"
	"os"

	"github.com/nconklindev/freightmap/internal/config"
	"github.com/nconklindev/freightmap/internal/converter"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BuildInfo is stamped at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	build      BuildInfo
	v          *viper.Viper
	cfg        *config.Config
	logger     *logrus.Logger
	logCloser  io.Closer
	configFile string
	envFile    string
}

func newRootCmd(build BuildInfo) (*cobra.Command, *app) {
	a := &app{build: build}

	root := &cobra.Command{
		Use:           "freightmap",
		Short:         "Map freight spreadsheets onto the import template",
		Long:          "freightmap remaps the columns of a client freight workbook onto the\n\"Import data file_Manufacturing\" template and exports processed_data.xlsx.",
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}
	root.SetVersionTemplate("freightmap {{.Version}}\n" + "commit: " + build.Commit + "\nbuilt: " + build.Date + "\n")

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	f.StringVar(&a.envFile, "env-file", "", "env file to load (default: .env if present)")
	f.String(config.KeyTemplate, "", "template workbook (default: embedded template)")
	f.String(config.KeyDirection, "target", "mapping direction: target (choose target columns) or source (choose source columns)")
	f.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	f.String(config.KeyLogFile, "", "write logs to this file")

	tui := newTUICmd(a)
	root.RunE = tui.RunE
	root.Flags().AddFlagSet(tui.Flags())

	root.AddCommand(tui, newServeCmd(a), newConvertCmd(a), newVersionCmd(a))
	return root, a
}

// Execute runs the root command.
func Execute(build BuildInfo) error {
	root, a := newRootCmd(build)
	return a.execute(root)
}

// execute runs cmd and closes the log file afterwards. cobra skips post-run
// hooks when RunE fails, so the file is closed here instead.
func (a *app) execute(cmd *cobra.Command) error {
	defer a.close()
	return cmd.Execute()
}

func (a *app) close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) prepare(cmd *cobra.Command) error {
	v, err := config.New(a.envFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	if err := config.ReadFile(v, a.configFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.v, a.cfg = v, cfg

	logger, closer, err := newLogger(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger, a.logCloser = logger, closer
	return nil
}

func (a *app) processor() *converter.Processor {
	return converter.NewProcessor(a.cfg.Template, a.cfg.Direction, a.logger)
}

// newLogger builds the process logger. Terminals get text output, anything
// else JSON.
func newLogger(level, file string, out io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing log-level")
	}
	logger.SetLevel(lvl)

	var closer io.Closer
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		out, closer = f, f
	}
	logger.SetOutput(out)

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, closer, nil
}
