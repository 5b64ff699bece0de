package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thewh1teagle/dmlcheck/internal/directml"
	"github.com/thewh1teagle/dmlcheck/internal/server"
)

const dllEnv = "DMLCHECK_DIRECTML_DLL"

var errNotSupported = errors.New("directml is not supported")

type app struct {
	verbose bool
	dllPath string
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "dmlcheck",
		Short:         "Check whether this machine supports hardware-accelerated DirectML",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show probe diagnostics")
	rootCmd.PersistentFlags().StringVar(&a.dllPath, "directml-dll", "", "path to DirectML.dll (default $"+dllEnv+" or DirectML.dll)")
	rootCmd.AddCommand(a.newCheckCommand(), a.newServeCommand())
	return rootCmd
}

func (a *app) setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// resolveDLLPath prefers the flag, then the environment, then the default search.
func (a *app) resolveDLLPath() string {
	if a.dllPath != "" {
		return a.dllPath
	}
	return os.Getenv(dllEnv)
}

func (a *app) newProbe() *directml.Probe {
	return directml.New(directml.SystemNative(a.resolveDLLPath()))
}

func (a *app) newCheckCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe for DirectML support; exits 1 when unsupported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(a.newProbe(), cmd.OutOrStdout(), quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing, report through the exit code")
	return cmd
}

func runCheck(probe server.Prober, out io.Writer, quiet bool) error {
	res := probe.Check()
	slog.Debug("directml probe", "supported", res.Supported, "stage", res.Stage, "status", res.Status, "error", res.Err)

	if !quiet {
		if res.Supported {
			fmt.Fprintln(out, "supported")
		} else {
			fmt.Fprintln(out, "not supported")
		}
	}
	if !res.Supported {
		return errNotSupported
	}
	return nil
}

func (a *app) newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the DirectML capability over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := fmt.Sprintf(":%d", port)
			if err := server.ListenAndServe(addr, server.New(a.newProbe(), version)); err != nil {
				return fmt.Errorf("error serving: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 11532, "port to listen on")
	return cmd
}
