package handlers

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"contentforge/internal/store"

	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change saved settings",
		Long: `Saved settings override the config file and environment.

Known keys:
  ` + store.SettingGeminiAPIKey + `, ` + store.SettingOpenRouterAPIKey + `, ` + store.SettingPreferredProvider + `,
  ` + store.SettingDefaultBrandVoice + `, ` + store.SettingWordPressURL + `,
  ` + store.SettingWordPressUser + `, ` + store.SettingWordPressPassword + `

Secret values are masked when displayed.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				all, err := a.store.ListSettings(cmd.Context())
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, k := range keys {
					fmt.Fprintf(w, "%s\t%s\n", k, store.DisplayValue(k, all[k]))
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				value, err := a.store.GetSetting(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), store.DisplayValue(args[0], value))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Save a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.store.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s = %s\n", args[0], store.DisplayValue(args[0], args[1]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a saved setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.store.DeleteSetting(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}
