// Package cmd implements the reqauth command line tool.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the reqauth command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reqauth",
		Short: "Sign and verify authenticated HTTP requests",
		Long: `reqauth is the companion tool of the request-auth-go library. Use it to hash
client secrets for key files, generate Ed25519 key pairs, print the headers
a client would send, and check a REQAUTH_* environment configuration.`,
		SilenceUsage: true,
	}
	root.AddCommand(newHashCmd(), newKeygenCmd(), newSignCmd(), newConfigCmd())
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
