// Command mxl2ten converts MusicXML scores to Tenuto.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"moria.us/tenuto/build/config"
)

type flags struct {
	config    string
	style     string
	extension string
	verbose   bool
	quiet     bool
}

func (f *flags) register(fl *pflag.FlagSet) {
	fl.StringVarP(&f.config, "config", "c", "", "JSON configuration file")
	fl.StringVar(&f.style, "style", "", "style attribute for instrument definitions")
	fl.StringVar(&f.extension, "ext", "", "extension for output files")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log debugging messages")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "only log warnings and errors")
}

// load returns the configuration with command-line overrides applied.
func (f *flags) load() (*config.Config, error) {
	c, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.style != "" {
		c.Style = f.style
	}
	if f.extension != "" {
		c.Extension = f.extension
	}
	c.Check(logrus.StandardLogger().WithField("flags", true))
	return c, nil
}

func (f *flags) setLevel() {
	switch {
	case f.verbose:
		logrus.SetLevel(logrus.DebugLevel)
	case f.quiet:
		logrus.SetLevel(logrus.WarnLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// outputPath returns the output path given on the command line, or the
// default one for the input.
func outputPath(c *config.Config, args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return c.OutputPath(args[0])
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "mxl2ten <input> [output]",
		Short: "Convert a MusicXML score to Tenuto",
		Long: "Convert a MusicXML score (.xml, .musicxml, or compressed .mxl) to the\n" +
			"Tenuto language. The output defaults to the input path with the\n" +
			"configured extension.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			f.setLevel()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.load()
			if err != nil {
				return err
			}
			return convertFile(cmd.Context(), c, args[0], outputPath(c, args))
		},
	}
	f.register(root.PersistentFlags())
	root.AddCommand(newWatchCmd(&f), newServeCmd(&f))
	return root
}

func mainE() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func main() {
	if err := mainE(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
