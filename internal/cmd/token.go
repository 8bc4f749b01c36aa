package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/auth"
)

var (
	tokenUserID     string
	tokenEmail      string
	tokenExpiry     string
	tokenSecretFlag string
	tokenSecretFile string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens for REST API authentication",
	Long: `Generate and manage JWT tokens for REST API authentication.

Tokens are required to authenticate REST API requests. Each token contains:
  - User id: identity of the caller
  - Expiry: when the token expires

Tokens are signed with a secret key that must match the daemon's JWT secret.`,
}

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API token",
	Long: `Generate a new JWT token for REST API authentication.

The generated token can be used in the Authorization header:
  Authorization: Bearer <token>

Token expiry uses standard duration format (24h, 168h, 720h). Requests above
the daemon's maximum expiry are clamped to it.`,
	Example: `  # Generate a token for a user (30 days expiry)
  folderium token generate --user-id alice --expiry 720h --secret <JWT_SECRET>

  # Generate a token from a secret file
  folderium token generate --user-id alice --secret-file /etc/folderium/jwt.secret`,
	RunE: runTokenGenerate,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenGenerateCmd)

	tokenGenerateCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User id for the token (required)")
	tokenGenerateCmd.MarkFlagRequired("user-id")

	// Secret flags (one required)
	tokenGenerateCmd.Flags().StringVar(&tokenSecretFlag, "secret", "", "JWT secret key")
	tokenGenerateCmd.Flags().StringVar(&tokenSecretFile, "secret-file", "", "Path to file containing JWT secret key")

	tokenGenerateCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim for the token")
	tokenGenerateCmd.Flags().StringVar(&tokenExpiry, "expiry", "24h", "Token expiry duration (e.g., 24h, 168h, 720h)")
}

func runTokenGenerate(cmd *cobra.Command, args []string) error {
	secret := tokenSecretFlag
	if tokenSecretFile != "" {
		secretBytes, err := os.ReadFile(tokenSecretFile)
		if err != nil {
			return fmt.Errorf("failed to read JWT secret file: %w", err)
		}
		secret = strings.TrimSpace(string(secretBytes))
	}

	if secret == "" {
		return fmt.Errorf("JWT secret is required. Use --secret or --secret-file")
	}

	var expiresIn time.Duration
	var err error
	if tokenExpiry != "0" && tokenExpiry != "" {
		expiresIn, err = time.ParseDuration(tokenExpiry)
		if err != nil {
			return fmt.Errorf("invalid expiry duration '%s': %w\nExamples: 24h, 168h, 720h", tokenExpiry, err)
		}
	}

	tm := auth.NewTokenManager(secret, "folderium")

	token, err := tm.GenerateToken(tokenUserID, tokenEmail, expiresIn)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Printf("Token:\n%s\n\n", token)
	fmt.Printf("Details:\n")
	fmt.Printf("  User id: %s\n", tokenUserID)
	if expiresIn > 0 {
		expiryTime := time.Now().Add(expiresIn)
		fmt.Printf("  Expires: %s (%s from now)\n", expiryTime.Format(time.RFC3339), expiresIn)
	}
	fmt.Printf("\nUsage:\n")
	fmt.Printf("  export TOKEN=\"%s\"\n", token)
	fmt.Printf("  curl -H \"Authorization: Bearer $TOKEN\" http://localhost:8080/v1/workspaces/<id>/apps\n")

	return nil
}
