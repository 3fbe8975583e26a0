package cli

import (
	"errors"
	"fmt"
	"time"

	"fetchname/internal/download"
	"fetchname/internal/utils"

	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		target    targetFlags
		network   networkFlags
		filename  string
		archive   bool
		overwrite bool
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Download a URL under a collision-free name",
		Long: `Get downloads a URL into the destination directory. The filename comes from
--filename, or is resolved from the response headers and the URL. The file is
written to a .part sibling first and renamed when complete.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := target.url(args)
			if err != nil {
				return err
			}
			if target.clipboard {
				fmt.Fprintf(cmd.ErrOrStderr(), "URL from clipboard: %s\n", url)
			}

			ctx, stop := withShutdown(cmd.Context())
			defer stop()

			printer := newProgressPrinter(cmd.ErrOrStderr())
			cfg := &download.Config{
				URL:        url,
				Dir:        target.destDir(a.settings),
				Filename:   filename,
				DefaultExt: target.defaultExt(a.settings),
				Archive:    archive,
				Overwrite:  overwrite,
				MaxProbes:  a.settings.MaxProbes,
				Probe:      network.options(a.settings),
			}
			if !quiet {
				cfg.Progress = printer.update
			}

			res, err := download.Fetch(ctx, cfg)
			printer.finish()
			if err != nil {
				if errors.Is(err, download.ErrExists) {
					return fmt.Errorf("%w (use --overwrite to replace it)", err)
				}
				return err
			}

			utils.Debug("get: %s saved to %s", url, res.Path)
			if !quiet {
				successColor.Fprintf(cmd.ErrOrStderr(), "Completed: %s [%s] (%s in %s)\n",
					res.Path, shortID(res.ID), utils.ConvertBytesToHumanReadable(res.Size), res.Elapsed.Round(time.Millisecond))
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}

	target.register(cmd)
	network.register(cmd)
	cmd.Flags().StringVarP(&filename, "filename", "n", "", "Save under this name instead of resolving one")
	cmd.Flags().BoolVar(&archive, "archive", false, "Name the file as an MHTML web archive")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file named by --filename")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the saved path")
	return cmd
}
