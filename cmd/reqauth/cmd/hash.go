package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ggoodman/request-auth-go/hasher"
	"github.com/spf13/cobra"
)

// errMismatch is returned by hash --check when the password is wrong.
var errMismatch = errors.New("password does not match hash")

func newHashCmd() *cobra.Command {
	var (
		algo  string
		check string
	)
	c := &cobra.Command{
		Use:   "hash [password]",
		Short: "Hash a client secret for the basic-hash method",
		Long: `Hash a client secret for the basic-hash method. The password is read from
the first line of stdin when not given as an argument.

With --check, the password is tested against an existing hash instead and the
command fails when it does not match.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			var f hasher.Factory

			if check != "" {
				h, err := f.Hasher(check)
				if err != nil {
					return err
				}
				if !h.Test(password, check) {
					return errMismatch
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return err
			}

			h, err := f.ByName(algo)
			if err != nil {
				return fmt.Errorf("%w (known: %s)", err, strings.Join(hasher.Names, ", "))
			}
			out, err := h.Hash(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	c.Flags().StringVar(&algo, "algo", "bcrypt", "hash format: "+strings.Join(hasher.Names, ", "))
	c.Flags().StringVar(&check, "check", "", "test the password against this hash instead of hashing it")
	return c
}

func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given")
	}
	return line, nil
}
