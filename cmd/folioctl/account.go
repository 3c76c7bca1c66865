package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/folio/backend/internal/app"
	"github.com/folio/backend/pkg/identity"
	"github.com/spf13/cobra"
)

var (
	grantEmail string
	mintTTL    time.Duration
)

// errNoAccountStore stops account commands from writing to an in-memory
// store that disappears when the command exits.
var errNoAccountStore = errors.New("REDIS_URL is required for account commands; without it accounts live only inside the server process (see IDENTITY_DEV_ADMIN_UID)")

// withIdentity runs fn against the configured identity provider.
func withIdentity(cmd *cobra.Command, fn func(p *identity.Provider) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errNoAccountStore
	}
	p, cleanup, err := app.Identity(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()
	return fn(p)
}

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin <uid>",
	Short: "Set the admin claim on an account",
	Long: `Set admin: true on the account's custom claims, creating the account
if needed. Tokens minted afterwards carry the claim; the user must sign in
again to pick it up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid := args[0]
		return withIdentity(cmd, func(p *identity.Provider) error {
			acct, err := p.EnsureAccount(cmd.Context(), uid, grantEmail)
			if err != nil {
				return err
			}
			claims := acct.CustomClaims
			if claims == nil {
				claims = map[string]any{}
			}
			claims[identity.AdminClaim] = true
			if err := p.SetCustomUserClaims(cmd.Context(), uid, claims); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted admin to %s\n", uid)
			return nil
		})
	},
}

var revokeAdminCmd = &cobra.Command{
	Use:   "revoke-admin <uid>",
	Short: "Remove the admin claim and revoke existing tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid := args[0]
		return withIdentity(cmd, func(p *identity.Provider) error {
			acct, err := p.GetAccount(cmd.Context(), uid)
			if err != nil {
				return err
			}
			claims := acct.CustomClaims
			delete(claims, identity.AdminClaim)
			if err := p.SetCustomUserClaims(cmd.Context(), uid, claims); err != nil {
				return err
			}
			// tokens already issued still carry the claim
			if err := p.RevokeRefreshTokens(cmd.Context(), uid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked admin from %s\n", uid)
			return nil
		})
	},
}

var revokeTokensCmd = &cobra.Command{
	Use:   "revoke-tokens <uid>",
	Short: "Invalidate every token issued to an account so far",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(p *identity.Provider) error {
			if err := p.RevokeRefreshTokens(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked tokens for %s\n", args[0])
			return nil
		})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <uid>",
	Short: "Disable an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDisabled(cmd, args[0], true)
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <uid>",
	Short: "Re-enable a disabled account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDisabled(cmd, args[0], false)
	},
}

func setDisabled(cmd *cobra.Command, uid string, disabled bool) error {
	return withIdentity(cmd, func(p *identity.Provider) error {
		if err := p.SetDisabled(cmd.Context(), uid, disabled); err != nil {
			return err
		}
		state := "enabled"
		if disabled {
			state = "disabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, uid)
		return nil
	})
}

var mintTokenCmd = &cobra.Command{
	Use:   "mint-token <uid>",
	Short: "Print a signed ID token for an account",
	Long: `Print a signed ID token for an existing account. Useful for local
development and for scripting the inbox commands.

Example:
  export FOLIO_TOKEN="$(folioctl mint-token owner)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(p *identity.Provider) error {
			tok, err := p.MintIDToken(cmd.Context(), args[0], mintTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		})
	},
}

func init() {
	grantAdminCmd.Flags().StringVar(&grantEmail, "email", "", "Email to record on a new account")
	mintTokenCmd.Flags().DurationVar(&mintTTL, "ttl", time.Hour, "Token lifetime")

	rootCmd.AddCommand(grantAdminCmd, revokeAdminCmd, revokeTokensCmd, disableCmd, enableCmd, mintTokenCmd)
}
