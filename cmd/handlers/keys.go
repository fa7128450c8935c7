package handlers

import (
	"fmt"

	"contentforge/internal/llm"
	"contentforge/internal/store"

	"github.com/spf13/cobra"
)

// NewKeysCmd creates the keys command
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Check and store provider API keys",
	}
	cmd.AddCommand(newKeysTestCmd())
	cmd.AddCommand(newKeysSetCmd())
	return cmd
}

func newKeysTestCmd() *cobra.Command {
	var override llm.Keys

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Verify the Gemini and OpenRouter keys",
		Long: `Send a minimal request to each backend with the key that generation
would use: a flag value first, then a saved setting, then the config file or
environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				out := cmd.OutOrStdout()
				for _, st := range a.articles.TestKeys(cmd.Context(), override) {
					switch {
					case !st.Configured:
						fmt.Fprintf(out, "⚪ %-11s not configured\n", st.Provider)
					case st.Valid:
						fmt.Fprintf(out, "✅ %-11s valid\n", st.Provider)
					default:
						fmt.Fprintf(out, "❌ %-11s rejected\n", st.Provider)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&override.Gemini, "gemini", "", "Gemini key to test instead of the saved one")
	cmd.Flags().StringVar(&override.OpenRouter, "openrouter", "", "OpenRouter key to test instead of the saved one")
	return cmd
}

func newKeysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set PROVIDER KEY",
		Short: "Save an API key to the library settings",
		Long: `Save an API key for gemini or openrouter. Saved keys take precedence over
the config file and environment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := llm.ParseKind(args[0])
			if err != nil {
				return err
			}
			setting := store.SettingGeminiAPIKey
			if kind == llm.KindOpenRouter {
				setting = store.SettingOpenRouterAPIKey
			}
			return withApp(func(a *app) error {
				if err := a.store.SetSetting(cmd.Context(), setting, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🔑 Saved %s key %s\n", kind, store.DisplayValue(setting, args[1]))
				return nil
			})
		},
	}
}
