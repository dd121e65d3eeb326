package cmd

import (
	"fmt"

	"github.com/ggoodman/request-auth-go/signature"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var fromPrivate string
	c := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 key pair for the publickey methods",
		Long: `Generate an Ed25519 key pair for the publickey methods. The client keeps the
private key; the public key goes into the server's key repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, pub := fromPrivate, ""
			var err error
			if priv == "" {
				priv, pub, err = signature.GenerateKeyPair()
			} else {
				pub, err = signature.PublicKeyFromPrivate(priv)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "private: %s\npublic: %s\n", priv, pub)
			return err
		},
	}
	c.Flags().StringVar(&fromPrivate, "from-private", "", "derive the public key of an existing private key")
	return c
}
