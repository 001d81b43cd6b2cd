package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/countdown/internal/themes"
)

type themesOptions struct {
	jsonOutput bool
}

func newThemesCmd() *cobra.Command {
	opts := &themesOptions{}

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemes(cmd, themes.Global(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

type themeJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
	LightAccent string `json:"light_accent"`
	DarkAccent  string `json:"dark_accent"`
}

type themesJSONPayload struct {
	Count  int         `json:"count"`
	Themes []themeJSON `json:"themes"`
}

func runThemes(cmd *cobra.Command, registry *themes.Registry, opts *themesOptions) error {
	descriptors := registry.Descriptors()
	defaultID := registry.Default()

	if opts.jsonOutput {
		payload := themesJSONPayload{Count: len(descriptors), Themes: make([]themeJSON, len(descriptors))}
		for i, d := range descriptors {
			payload.Themes[i] = themeJSON{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Default:     d.ID == defaultID,
				LightAccent: d.Accents.Light,
				DarkAccent:  d.Accents.Dark,
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	if len(descriptors) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No themes registered.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
	for _, d := range descriptors {
		id := d.ID
		if id == defaultID {
			id += " (default)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", id, d.Name, d.Description)
	}
	return writer.Flush()
}
