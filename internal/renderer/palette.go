package renderer

import "github.com/alexisbeaulieu97/countdown/internal/colormode"

// Palette holds the colors a painter draws with, resolved for one color mode.
type Palette struct {
	Foreground string
	Dim        string
	Off        string
	Accent     string
	Highlight  string
}

// Accents are the per-theme colors for light and dark appearance.
type Accents struct {
	Light string
	Dark  string
}

// PaletteFor resolves a palette for mode using the theme accents.
func PaletteFor(mode colormode.Mode, accents Accents) Palette {
	if mode == colormode.Light {
		return Palette{
			Foreground: "#24292f",
			Dim:        "#8c959f",
			Off:        "#ebedf0",
			Accent:     fallback(accents.Light, "#216e39"),
			Highlight:  "#9be9a8",
		}
	}
	return Palette{
		Foreground: "#e6edf3",
		Dim:        "#6e7681",
		Off:        "#161b22",
		Accent:     fallback(accents.Dark, "#39d353"),
		Highlight:  "#0e4429",
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
