package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"decko/internal/keys"
	"decko/pkg/config"
)

var keyValue string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Gemini API key",
	Long: `Image generation and search grounding need a key from a paid Google Cloud
project. Keys are kept in .env or Google Secret Manager, depending on keys.store.`,
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are configured",
	RunE:  runKeyStatus,
}

var keySelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the API key to use",
	Long:  `Opens the key page in your browser and asks for the key, unless --key is given.`,
	RunE:  runKeySelect,
}

func init() {
	keySelectCmd.Flags().StringVarP(&keyValue, "key", "k", "", "API key to store without prompting")
	keyCmd.AddCommand(keyStatusCmd, keySelectCmd)
	rootCmd.AddCommand(keyCmd)
}

func runKeyStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	cfg := svc.Config

	fmt.Println(infoStyle.Render("\nCredential status:\n"))

	if cfg.Gemini.Backend == config.BackendVertex {
		fmt.Println(infoStyle.Render(fmt.Sprintf("○ Backend: Vertex AI (project %s, %s)", cfg.GCPProject, cfg.GCPLocation)))
		if keys.HasDefaultCredentials(ctx) {
			fmt.Println(successStyle.Render("✓ Application Default Credentials found"))
		} else {
			fmt.Println(errorStyle.Render("✗ No Application Default Credentials"))
			fmt.Println(infoStyle.Render("  Run: gcloud auth application-default login"))
		}
	} else {
		has, err := svc.Keys.HasSelectedKey(ctx)
		if err != nil {
			return err
		}
		store := "env file " + cfg.Keys.EnvFile
		if cfg.Keys.Store == config.KeyStoreSecretManager {
			store = "secret " + cfg.Keys.SecretName
		}
		if has {
			fmt.Println(successStyle.Render("✓ Gemini: API key selected (" + store + ")"))
		} else {
			fmt.Println(errorStyle.Render("✗ Gemini: no API key (" + store + ")"))
			fmt.Println(infoStyle.Render("  Run: decko key select"))
		}
	}

	if cfg.Draft.Provider == config.ProviderGroq {
		if cfg.GroqAPIKey != "" {
			fmt.Println(successStyle.Render("✓ Groq: API key configured"))
		} else {
			fmt.Println(errorStyle.Render("✗ Groq: missing GROQ_API_KEY"))
		}
	} else {
		fmt.Println(mutedStyle.Render("○ Groq: not used (draft.provider is gemini)"))
	}

	if cfg.Storage.Backend == config.StorageGCS {
		fmt.Println(successStyle.Render("✓ Storage: gs://" + cfg.GCSBucket + "/" + cfg.Storage.Prefix))
	} else {
		fmt.Println(mutedStyle.Render("○ Storage: " + cfg.Image.OutputDir))
	}

	fmt.Println()
	return nil
}

func runKeySelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Config.Gemini.Backend == config.BackendVertex {
		fmt.Println(warnStyle.Render("The vertex backend uses Application Default Credentials."))
		fmt.Println(infoStyle.Render("Run: gcloud auth application-default login"))
		return nil
	}

	if keyValue != "" {
		err = svc.Keys.SelectKey(ctx, keyValue)
	} else {
		err = svc.Keys.OpenSelectKey(ctx)
	}
	if errors.Is(err, keys.ErrCancelled) {
		fmt.Println(warnStyle.Render("Key selection cancelled."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("select key: %w", err)
	}

	fmt.Println(successStyle.Render("✓ API key saved"))
	return nil
}
