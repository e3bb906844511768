package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toyz/kiln/internal/cli"
	"github.com/toyz/kiln/internal/utils"
)

// version is set with -ldflags "-X main.version=...". Module builds fall
// back to the build info.
var version = ""

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	out        io.Writer
	errOut     io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "kiln",
		Short: "kiln generates fx modules from //kiln:: directives",
		Long: `kiln reads //kiln:: directives from Go packages and writes the
dependency injection modules they describe as *_kiln.go files.

Configuration is read from kiln.yaml (or .toml/.json) in --dir, from
KILN_* environment variables and from flags, in increasing precedence.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate("kiln version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "configuration file (default kiln.yaml in --dir)")
	flags.String("dir", ".", "directory package patterns are resolved from")
	flags.BoolP("verbose", "v", false, "show every file written and debug logging")
	flags.BoolP("quiet", "q", false, "only show errors")

	root.AddCommand(
		newGenerateCmd(opts),
		newCleanCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// flagKeys maps configuration keys to the flags that override them.
var flagKeys = []struct{ key, flag string }{
	{"dir", "dir"},
	{"output", "out"},
	{"dry_run", "dry-run"},
	{"verbose", "verbose"},
	{"quiet", "quiet"},
}

// loadConfig merges defaults, the configuration file, the environment and
// the flags of cmd. Positional arguments replace the configured patterns.
func (o *rootOptions) loadConfig(cmd *cobra.Command, args []string) (*cli.Config, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}
	v, err := cli.NewViper(o.configFile, dir)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		v.Set("patterns", args)
	}
	return cli.LoadConfig(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for _, fk := range flagKeys {
		f := cmd.Flags().Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return err
		}
	}
	return nil
}

func (o *rootOptions) diagnostics(level utils.DiagnosticLevel) *utils.DiagnosticSystem {
	d := utils.NewDiagnosticSystem(level)
	if o.out == os.Stdout && o.errOut == os.Stderr {
		return d
	}
	return d.WithWriters(o.out, o.errOut)
}

func (o *rootOptions) reporter(verbose bool) *cli.DiagnosticReporter {
	r := cli.NewDiagnosticReporter(verbose)
	if o.out == os.Stdout && o.errOut == os.Stderr {
		return r
	}
	return r.WithWriters(o.out, o.errOut)
}

// fail reports err once and hands it back to cobra.
func (o *rootOptions) fail(cmd *cobra.Command, err error) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	o.reporter(verbose).ReportError(err)
	return err
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kiln version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(opts.out, "kiln version %s\n", versionString())
		},
	}
}

func versionString() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
