package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-site/internal/colorutil"
	"portfolio-site/internal/palette"
	"portfolio-site/internal/theme"
)

type themeOptions struct {
	variant string
	triad   bool
}

func newThemeCmd() *cobra.Command {
	opts := &themeOptions{}

	cmd := &cobra.Command{
		Use:   "theme [#RRGGBB x6]",
		Short: "Print the stylesheet overrides generated for a palette",
		Long: "Print the custom-property and utility-class overrides generated for six colors, " +
			"or for a built-in variant (" + variantList() + ") when no colors are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			colors, err := themeColors(args, opts.variant)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.triad {
				t := theme.PickDiverse(colors)
				fmt.Fprintf(out, "primary %s\naccent  %s\nthird   %s\n", t.Primary, t.Accent, t.Third)
				return nil
			}
			fmt.Fprint(out, theme.BuildCSS(colors))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.variant, "variant", string(theme.VariantSunset), "Built-in palette used when no colors are given")
	cmd.Flags().BoolVar(&opts.triad, "triad", false, "Print only the primary, accent and third selection")

	return cmd
}

func themeColors(args []string, variant string) ([]colorutil.Hex, error) {
	if len(args) == 0 {
		return theme.Palette(theme.Variant(variant))
	}
	p, err := palette.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	return p.Colors(), nil
}

func variantList() string {
	names := make([]string, 0, len(theme.Variants()))
	for _, v := range theme.Variants() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}
