package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/huntboard/internal/auth"
)

// hashCmd prints a bcrypt hash for admin_password_hash.
var hashCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read an admin secret from stdin and print its bcrypt hash",
	Long: `Read one line from stdin and print a bcrypt hash suitable for
HUNT_ADMIN_PASSWORD_HASH. The secret itself is never stored.

Example:
  printf '%s' "$SECRET" | huntboard hash-password`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		secret := strings.TrimRight(line, "\r\n")
		if secret == "" {
			if err != nil {
				return fmt.Errorf("read secret: %w", err)
			}
			return errors.New("empty secret")
		}
		hash, err := auth.Hash(secret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}
