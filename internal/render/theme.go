package render

import "strings"

// DefaultThemes is the toggle order when the site config names none.
var DefaultThemes = []string{"brass", "cyan", "light"}

// NextTheme returns the theme after current in the cycle. An unknown or
// empty current theme maps to the first theme.
func NextTheme(themes []string, current string) string {
	if len(themes) == 0 {
		themes = DefaultThemes
	}

	for i, t := range themes {
		if strings.EqualFold(t, current) {
			return themes[(i+1)%len(themes)]
		}
	}

	return themes[0]
}

// ThemeOrDefault returns theme when it is one of themes, else the first.
func ThemeOrDefault(themes []string, theme string) string {
	if len(themes) == 0 {
		themes = DefaultThemes
	}

	for _, t := range themes {
		if strings.EqualFold(t, theme) {
			return t
		}
	}

	return themes[0]
}
