package cmd

import (
	"fmt"
	"strings"

	reqauth "github.com/ggoodman/request-auth-go"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var build bool
	c := &cobra.Command{
		Use:   "config",
		Short: "Validate the REQAUTH_* environment configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := reqauth.ConfigFromEnv()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "methods:      %s\n", strings.Join(cfg.MethodNames(), ", "))
			if cfg.KeyDSN != "" {
				fmt.Fprintln(out, "keys:         database")
			} else {
				fmt.Fprintf(out, "keys:         %s (watch=%t)\n", cfg.KeyFile, cfg.WatchKeyFile)
			}
			fmt.Fprintf(out, "replay guard: %s (ttl=%s)\n", cfg.ReplayGuard, cfg.RequestIDTTL)
			if !build {
				return nil
			}
			v, err := cfg.Build(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, "build:        ok")
			if cerr := v.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	c.Flags().BoolVar(&build, "build", false, "also open the key repository and replay guard")
	return c
}
