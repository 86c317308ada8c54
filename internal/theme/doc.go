// Package theme derives site and terminal color themes from a six-color palette.
//
// PickDiverse selects a primary, accent and third color that sit far apart on the hue
// wheel, BuildCSS turns a palette into CSS custom-property and utility-class overrides,
// and Resolve produces typed style bundles for the terminal portfolio.
//
// Integration example:
//
//	colors, err := theme.Palette(theme.VariantOcean)
//	if err != nil {
//		return err
//	}
//	css := theme.BuildCSS(colors)
//	bundle := theme.Resolve(colors, theme.ResolveOptions{Term: os.Getenv("TERM")})
//	header.SetStyle(bundle.Header)
package theme
