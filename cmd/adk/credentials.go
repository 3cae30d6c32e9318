package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/renanlido/agentic-development-kit-sub001/internal/credentials"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// readToken is replaced in tests
var readToken = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage provider API tokens",
		Long: `Manage provider API tokens in the system keyring.

Tokens are looked up in priority order:
  1. The env file from the config (integration.env_file), key {PROVIDER}_API_TOKEN
  2. The process environment, same key
  3. The system keyring

Examples:
  # Store a token (interactive prompt)
  adk credentials set todoist --prompt

  # Show where the token is found
  adk credentials get todoist

  # Remove the keyring entry
  adk credentials delete todoist`,
	}

	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsGetCmd())
	cmd.AddCommand(newCredentialsDeleteCmd())

	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "set <provider> [token]",
		Short: "Store a provider token in the system keyring",
		Long: `Store a provider API token in the system keyring.

With --prompt the token is read without echo (recommended; a token passed
as an argument ends up in shell history).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]

			var token string
			switch {
			case prompt:
				var err error
				token, err = readToken(fmt.Sprintf("Enter API token for %s: ", provider))
				if err != nil {
					return err
				}
			case len(args) == 2:
				token = args[1]
			default:
				return fmt.Errorf("token is required (use --prompt for interactive input)")
			}
			if token == "" {
				return fmt.Errorf("token cannot be empty")
			}

			if err := credentials.SetToken(provider, token); err != nil {
				if !credentials.IsAvailable() {
					return fmt.Errorf("system keyring is not available. Put the token in your env file or environment instead:\n  %s=<token>",
						credentials.TokenEnvKey(provider))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token stored in keyring for %s (%s)\n", provider, credentials.Mask(token))
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "Prompt for the token interactively (recommended)")
	return cmd
}

func newCredentialsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <provider>",
		Short: "Show where a provider token is found",
		Long: `Resolve the provider token the way sync does and report its source.
The token itself is masked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			out := cmd.OutOrStdout()
			token, err := a.Resolver().Resolve(provider)
			if err != nil {
				fmt.Fprintf(out, "✗ No token found for %s\n", provider)
				fmt.Fprintln(out, "\nAvailable options:")
				fmt.Fprintf(out, "  1. Store in keyring:\n     adk credentials set %s --prompt\n", provider)
				fmt.Fprintf(out, "  2. Add to your env file or environment:\n     %s=<token>\n", credentials.TokenEnvKey(provider))
				utils.Debugf("%v", err)
				return utils.ErrCredentialsNotFound(provider)
			}

			fmt.Fprintf(out, "✓ Token found for %s\n", provider)
			fmt.Fprintf(out, "  Source: %s\n", token.Source)
			fmt.Fprintf(out, "  Token: %s\n", credentials.Mask(token.Value))
			return nil
		},
	}
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a provider token from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if err := credentials.DeleteToken(provider); err != nil {
				if errors.Is(err, credentials.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No keyring token stored for %s\n", provider)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token removed from keyring for %s\n", provider)
			return nil
		},
	}
}
