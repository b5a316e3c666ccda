package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options. The API reloads them every minute.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				c, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get cors config: %w", err)
				}
				printCors(cmd, c, cfg.FrontendURL)
				return nil
			})
		},
	}
}

func printCors(cmd *cobra.Command, c *models.CorsConfig, fallback string) {
	w := cmd.OutOrStdout()
	printHeader(w, "CORS configuration:")
	if c == nil {
		printWarn(w, "  nothing stored; the API allows FRONTEND_URL (%s). Use 'cors set' to change it.", fallback)
		return
	}
	printField(w, "Allowed origins", c.AllowedOrigins)
	printField(w, "Allow credentials", c.AllowCredentials)
	printField(w, "Max-Age", c.MaxAge)
}

// validateOrigins checks every comma-separated origin is an absolute http(s) URL without a path
func validateOrigins(origins string) error {
	list := database.AllowedOriginsSlice(origins)
	if len(list) == 0 {
		return fmt.Errorf("--origins is required (comma-separated list)")
	}
	for _, origin := range list {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("origin %q must be an http(s) URL such as https://app.example.com", origin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("origin %q must not contain a path", origin)
		}
	}
	return nil
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated).",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if err := validateOrigins(origins); err != nil {
				return err
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				c := &models.CorsConfig{
					AllowedOrigins:   origins,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewCorsConfigRepository(db).Set(cmd.Context(), c); err != nil {
					return fmt.Errorf("failed to set cors config: %w", err)
				}
				printOK(cmd.OutOrStdout(), "CORS configuration updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
