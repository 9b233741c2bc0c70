package commands

import (
	"fmt"
	"strings"

	"github.com/getkayan/kayan-login/core/callback"
	"github.com/getkayan/kayan-login/core/secret"
	"github.com/getkayan/kayan-login/core/validator"
	"github.com/spf13/cobra"
)

var (
	hashAlgorithm string
	hashUser      string
	hashGroups    []string
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a secret for a password file",
	Long: `Read a secret and print its hash in password file format.

With --user the full line is printed, ready to append to a password file:

  kayan-login hash --user alice --groups dev,ops >> /etc/kayan/passwd`,
	Args: cobra.NoArgs,
	RunE: runHash,
}

func init() {
	hashCmd.Flags().StringVar(&hashAlgorithm, "algorithm", "md5", "hash algorithm (md5, bcrypt)")
	hashCmd.Flags().StringVar(&hashUser, "user", "", "print a complete password file line for this user")
	hashCmd.Flags().StringSliceVar(&hashGroups, "groups", nil, "groups to list after the hash (requires --user)")
}

func runHash(cmd *cobra.Command, args []string) error {
	if len(hashGroups) > 0 && hashUser == "" {
		return fmt.Errorf("--groups requires --user")
	}
	if strings.ContainsAny(hashUser, ":#") {
		return fmt.Errorf("user name must not contain ':' or '#'")
	}

	hasher, err := validator.NewHasher(hashAlgorithm)
	if err != nil {
		return err
	}

	pass := callback.NewPasswordCallback("Secret: ", false)
	defer pass.ClearPassword()
	h := NewTerminalHandler(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err := h.Handle(cmd.Context(), []callback.Callback{pass}); err != nil {
		return err
	}
	buf := secret.FromBytes(pass.TakePassword())
	defer buf.Wipe()
	if buf.Len() == 0 {
		return fmt.Errorf("secret must not be empty")
	}

	sum, err := hasher.Hash(buf.Bytes())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if hashUser == "" {
		fmt.Fprintln(out, string(sum))
		return nil
	}
	fields := append([]string{hashUser, string(sum)}, hashGroups...)
	fmt.Fprintln(out, strings.Join(fields, ":"))
	return nil
}
