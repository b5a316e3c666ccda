package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/auth"
	"github.com/benvon/study-planner/internal/config"
	"github.com/spf13/cobra"
)

// NewOIDCCheckCmd verifies the issuer discovery document and the JWKS the API will verify
// tokens against
func NewOIDCCheckCmd() *cobra.Command {
	var issuer, jwksURL string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "oidc-check",
		Short: "Check the OIDC issuer and JWKS endpoints",
		Long:  "Fetch the issuer's discovery document and signing keys. Defaults come from OIDC_ISSUER and OIDC_JWKS_URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if issuer == "" {
				issuer = cfg.OIDCIssuer
			}
			if jwksURL == "" {
				jwksURL = cfg.OIDCJWKSURL
			}
			if issuer == "" {
				return fmt.Errorf("--issuer or OIDC_ISSUER is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return checkOIDC(ctx, cmd.OutOrStdout(), &http.Client{Timeout: timeout}, issuer, jwksURL)
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer URL")
	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "JWKS URL (default: jwks_uri from discovery)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Overall timeout")
	return cmd
}

type discoveryDocument struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

func checkOIDC(ctx context.Context, w io.Writer, client *http.Client, issuer, jwksURL string) error {
	discoveryURL := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	printHeader(w, "Checking "+discoveryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build discovery request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach discovery endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode discovery document: %w", err)
	}
	printOK(w, "Discovery document found")
	if doc.Issuer != issuer {
		printWarn(w, "  issuer in document is %q; tokens must carry exactly the configured issuer", doc.Issuer)
	}

	if jwksURL == "" {
		jwksURL = doc.JWKSURI
	}
	if jwksURL == "" {
		return fmt.Errorf("no JWKS URL configured and none advertised by the issuer")
	}
	printHeader(w, "Checking "+jwksURL)
	keys, err := auth.NewJWKSManager(jwksURL, auth.DefaultJWKSTTL).Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch signing keys: %w", err)
	}
	if keys.Len() == 0 {
		return fmt.Errorf("JWKS at %s holds no keys", jwksURL)
	}
	printOK(w, "JWKS holds %d signing key(s)", keys.Len())
	return nil
}
