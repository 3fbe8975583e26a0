package cli

import (
	"fmt"
	"io"
	"strings"

	"fetchname/internal/probe"
	"fetchname/internal/resolve"

	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		target  targetFlags
		network networkFlags
	)

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Send a HEAD request and print the resolved path",
		Long: `Probe fetches the response headers for a URL and resolves a filename from
them. If the request fails, the name is guessed from the URL alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := target.url(args)
			if err != nil {
				return err
			}

			ctx, stop := withShutdown(cmd.Context())
			defer stop()

			client := probe.NewClient(network.options(a.settings))
			defer client.Close()

			r := resolve.New(target.destDir(a.settings))
			r.MaxProbes = a.settings.MaxProbes

			var res probe.Result
			select {
			case res = <-client.Start(ctx, url, r, target.defaultExt(a.settings)):
			case <-ctx.Done():
				return fmt.Errorf("probe cancelled: %w", ctx.Err())
			}

			out := cmd.OutOrStdout()
			if res.ProbeErr != nil {
				warnColor.Fprintf(cmd.ErrOrStderr(), "Warning: probe failed, guessing from URL: %v\n", res.ProbeErr)
			} else {
				fmt.Fprintf(out, "Status: %d\n", res.Status)
				printHeader(out, res.Headers, resolve.HeaderContentDisposition)
				printHeader(out, res.Headers, resolve.HeaderContentType)
			}
			if res.Err != nil {
				return res.Err
			}
			for _, decodeErr := range res.Resolved.DecodeErrs {
				warnColor.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", decodeErr)
			}
			fmt.Fprintf(out, "Source: %s\n", res.Resolved.Source)
			fmt.Fprintf(out, "Path: %s\n", res.Path())
			return nil
		},
	}

	target.register(cmd)
	network.register(cmd)
	return cmd
}

func printHeader(w io.Writer, h resolve.Headers, name string) {
	if values := h.Values(name); len(values) > 0 {
		fmt.Fprintf(w, "%s: %s\n", name, strings.Join(values, ", "))
	}
}
