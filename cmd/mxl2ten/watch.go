package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"moria.us/tenuto/build/config"
	"moria.us/tenuto/build/watcher"
)

func newWatchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <input> [output]",
		Short: "Convert a score each time it changes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.load()
			if err != nil {
				return err
			}
			return watch(cmd.Context(), c, args[0], outputPath(c, args))
		},
	}
}

// watch writes the output each time the input converts successfully, until
// the context is done. Conversion errors are logged and the previous output
// is left alone.
func watch(ctx context.Context, c *config.Config, input, output string) error {
	ch, err := watcher.Watch(ctx, input, converter(c))
	if err != nil {
		return err
	}
	logrus.Infoln("Watching", input)
	for s := range ch {
		if s.Err != nil {
			logrus.Errorln("Convert:", s.Err)
			continue
		}
		if err := writeOutput(output, s.Output); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != context.Canceled {
		return err
	}
	return nil
}
