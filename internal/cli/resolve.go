package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"fetchname/internal/resolve"

	"github.com/spf13/cobra"
)

type resolveOutput struct {
	URL          string   `json:"url"`
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Source       string   `json:"source"`
	DecodeErrors []string `json:"decode_errors,omitempty"`
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		target      targetFlags
		headers     []string
		mimeType    string
		disposition string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Print the path a download would be saved to",
		Long: `Resolve picks a filename from the given headers (or the URL alone) and makes
it unique in the destination directory. Nothing is fetched or created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := target.url(args)
			if err != nil {
				return err
			}

			h, err := parseHeaderFlags(headers)
			if err != nil {
				return err
			}
			if disposition != "" {
				h.Add(resolve.HeaderContentDisposition, disposition)
			}
			if mimeType != "" {
				h.Add(resolve.HeaderContentType, mimeType)
			}

			r := resolve.New(target.destDir(a.settings))
			r.MaxProbes = a.settings.MaxProbes
			res, err := r.ResolveDetailed(url, target.defaultExt(a.settings), h)
			if err != nil {
				return err
			}

			for _, decodeErr := range res.DecodeErrs {
				warnColor.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", decodeErr)
			}

			if asJSON {
				out := resolveOutput{
					URL:    url,
					Path:   res.Path,
					Name:   res.Name,
					Source: res.Source.String(),
				}
				for _, decodeErr := range res.DecodeErrs {
					out.DecodeErrors = append(out.DecodeErrors, decodeErr.Error())
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Response header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "Content-Type of the response")
	cmd.Flags().StringVar(&disposition, "disposition", "", "Content-Disposition of the response")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// parseHeaderFlags turns repeated "Name: value" flags into Headers.
func parseHeaderFlags(raw []string) (resolve.Headers, error) {
	h := resolve.Headers{}
	for _, line := range raw {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", line)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}
