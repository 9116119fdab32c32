package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/seatmap/internal/auth"
	"github.com/gosuda/seatmap/internal/config"
	"github.com/gosuda/seatmap/internal/server/middleware"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

// tokenCmd mints an access token signed with SEATMAP_JWT_SECRET, for local
// development and service accounts.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch tokenRole {
		case middleware.RoleAdmin, middleware.RoleEditor, middleware.RoleViewer:
		default:
			return fmt.Errorf("unknown role %q: want admin, editor or viewer", tokenRole)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		tok, err := auth.IssueAccessToken(cfg.JWT.Secret, tokenUser, tokenRole, tokenTTL)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id placed in the token (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleViewer, "admin, editor or viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
