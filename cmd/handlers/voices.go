package handlers

import (
	"fmt"
	"text/tabwriter"

	"contentforge/internal/core"

	"github.com/spf13/cobra"
)

// NewVoicesCmd creates the brand voice command
func NewVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "Manage brand voices",
		Long: `Brand voices describe how articles should sound. Pass one to generate
with --brand-voice, or make it the default with:

  contentforge settings set default_brand_voice "My Voice"`,
	}
	cmd.AddCommand(newVoicesListCmd())
	cmd.AddCommand(newVoicesAddCmd())
	return cmd
}

func newVoicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List brand voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				voices, err := a.store.ListBrandVoices(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "ID\tName\tTone\tDescription\n")
				fmt.Fprintf(w, "━━━━━━━━\t━━━━━━━━━━━━━━━━━━━━\t━━━━━━━━━━━━\t━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
				for _, v := range voices {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(v.ID), v.Name, v.Tone, truncate(v.Description, 30))
				}
				return w.Flush()
			})
		},
	}
}

func newVoicesAddCmd() *cobra.Command {
	var voice core.BrandVoice

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create or replace a brand voice",
		Args:  cobra.ExactArgs(1),
		Example: `  contentforge voices add "Barista Bob" --tone playful \
    --characteristic "uses coffee puns" --characteristic "short sentences"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			voice.Name = args[0]
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if existing, err := a.store.GetBrandVoice(ctx, voice.Name); err == nil {
					voice.ID = existing.ID
					voice.CreatedAt = existing.CreatedAt
				}
				if err := a.store.SaveBrandVoice(ctx, &voice); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🎙️  Saved brand voice %q (%s)\n", voice.Name, shortID(voice.ID))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&voice.Description, "description", "", "short description")
	f.StringVar(&voice.Tone, "tone", "", "tone of voice")
	f.StringArrayVar(&voice.Characteristics, "characteristic", nil, "voice characteristic (repeatable)")
	f.StringVar(&voice.StyleGuidelines, "guidelines", "", "style guidelines")
	f.StringVar(&voice.SampleContent, "sample", "", "sample paragraph in this voice")
	return cmd
}
