package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/credential"
)

func newTokenCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend API token stored in the system keyring",
	}
	cmd.AddCommand(newTokenSetCmd(rt), newTokenClearCmd(rt))
	return cmd
}

func newTokenSetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Store the API token (prompts when omitted)",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.env.Credentials == nil {
				return errors.New("no credential store available")
			}
			var tok string
			if len(args) == 1 {
				tok = strings.TrimSpace(args[0])
			} else if rt.env.Prompt != nil {
				var err error
				if tok, err = rt.env.Prompt("API token"); err != nil {
					return err
				}
			}
			if tok == "" {
				return usagef(errors.New("token is empty"))
			}
			if err := rt.env.Credentials.Set(credential.APITokenKey, tok); err != nil {
				return err
			}
			return rt.formatter().Success(map[string]bool{"stored": true}, func(w io.Writer) {
				fmt.Fprintln(w, "✓ Token stored")
			})
		},
	}
}

func newTokenClearCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API token",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.env.Credentials == nil {
				return errors.New("no credential store available")
			}
			if err := rt.env.Credentials.Delete(credential.APITokenKey); err != nil {
				return err
			}
			return rt.formatter().Success(map[string]bool{"cleared": true}, func(w io.Writer) {
				fmt.Fprintln(w, "✓ Token removed")
			})
		},
	}
}
