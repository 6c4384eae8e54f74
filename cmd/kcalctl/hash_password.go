package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/2beens/macrotrack/pkg"

	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password read from stdin",
		Long:  "Reads one line from stdin and prints the bcrypt hash to use as MACROTRACK_ADMIN_PASSWORD_HASH.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			hash, err := pkg.HashPassword(strings.TrimRight(line, "\r\n"), cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", pkg.DefaultPasswordCost, "bcrypt cost")
	return cmd
}
