package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"fetchname/internal/clipboard"
	"fetchname/internal/config"
	"fetchname/internal/probe"
	"fetchname/internal/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information - set via ldflags during build.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	verbose    bool
	configPath string
	settings   *config.Settings
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fetchname",
		Short: "Pick collision-free filenames for downloads",
		Long: `fetchname resolves the filename a download should be saved under, from the
Content-Disposition and Content-Type headers or the URL, and makes it unique
in the destination directory. It can probe a URL with HEAD or download it.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			utils.CloseDebug()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Settings file (default: settings.yaml in the app directory)")
	rootCmd.SetVersionTemplate("fetchname v{{.Version}}\n")

	rootCmd.AddCommand(newResolveCmd(a), newProbeCmd(a), newGetCmd(a))
	return rootCmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initialize loads settings and, in verbose mode, the debug log.
func (a *app) initialize() error {
	utils.SetVerbose(a.verbose)

	var err error
	if a.configPath != "" {
		a.settings, err = config.LoadSettingsFrom(a.configPath)
	} else {
		a.settings, err = config.LoadSettings()
	}
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	if a.verbose {
		if err := config.EnsureDirs(); err != nil {
			return fmt.Errorf("creating app directories: %w", err)
		}
		utils.ConfigureDebug(config.GetLogsDir())
		utils.CleanupLogs(a.settings.LogRetention)
		utils.Debug("fetchname %s (built %s)", Version, BuildTime)
	}
	return nil
}

// targetFlags are shared by every subcommand that takes a URL.
type targetFlags struct {
	dir       string
	ext       string
	clipboard bool
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "output", "o", "", "Destination directory (default: download_dir setting)")
	cmd.Flags().StringVar(&f.ext, "ext", "", "Extension to use when nothing else supplies one, e.g. .bin")
	cmd.Flags().BoolVar(&f.clipboard, "clipboard", false, "Read URL from clipboard")
}

func (f *targetFlags) url(args []string) (string, error) {
	return clipboard.URLFromArgs(args, f.clipboard)
}

func (f *targetFlags) destDir(s *config.Settings) string {
	dir := f.dir
	if dir == "" {
		dir = s.DownloadDir
	}
	return utils.EnsureAbsPath(dir)
}

func (f *targetFlags) defaultExt(s *config.Settings) string {
	if f.ext != "" {
		return f.ext
	}
	return s.DefaultExt
}

// networkFlags configure the HEAD and GET requests.
type networkFlags struct {
	userAgent string
	referer   string
	cookie    string
	timeout   time.Duration
	http3     bool
}

func (f *networkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "User-Agent header (default: user_agent setting)")
	cmd.Flags().StringVar(&f.referer, "referer", "", "Referer header")
	cmd.Flags().StringVar(&f.cookie, "cookie", "", "Cookie header")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Connect timeout (default: connect_timeout setting)")
	cmd.Flags().BoolVar(&f.http3, "http3", false, "Use HTTP/3 (QUIC) only")
}

func (f *networkFlags) options(s *config.Settings) probe.Options {
	opts := probe.Options{
		UserAgent:      s.UserAgent,
		Referer:        f.referer,
		Cookie:         f.cookie,
		ConnectTimeout: s.ConnectTimeout,
		HTTP3:          s.HTTP3 || f.http3,
	}
	if f.userAgent != "" {
		opts.UserAgent = f.userAgent
	}
	if f.timeout > 0 {
		opts.ConnectTimeout = f.timeout
	}
	return opts
}
