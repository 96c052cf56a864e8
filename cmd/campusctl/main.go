package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	server  string
	token   string
	timeout time.Duration
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "campusctl",
		Short:         "Command-line client for the campus resource hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.token == "" {
				opts.token = os.Getenv("CAMPUSHUB_TOKEN")
			}
			if opts.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = l
			} else {
				opts.logger = zap.NewNop()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr("CAMPUSHUB_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token (or set CAMPUSHUB_TOKEN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newThreadCmd(opts))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
