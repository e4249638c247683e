package services

import (
	"fmt"
	"strings"

	"storyslip/internal/domain/models"
)

// theme baselines; styling fields override them rule by rule
var themeDefaults = map[models.WidgetTheme]models.WidgetStyling{
	models.ThemeModern:   {BackgroundColor: "#ffffff", TextColor: "#1f2933", HeadingColor: "#102a43", AccentColor: "#2563eb", FontFamily: "system-ui, sans-serif", FontSize: "16px", BorderRadius: "8px", Padding: "16px"},
	models.ThemeMinimal:  {BackgroundColor: "transparent", TextColor: "#333333", HeadingColor: "#111111", AccentColor: "#111111", FontFamily: "system-ui, sans-serif", FontSize: "15px", BorderRadius: "0", Padding: "8px"},
	models.ThemeClassic:  {BackgroundColor: "#fdfdfb", TextColor: "#2d2a26", HeadingColor: "#1a1712", AccentColor: "#8b5e34", FontFamily: "Georgia, serif", FontSize: "17px", BorderRadius: "2px", Padding: "20px"},
	models.ThemeMagazine: {BackgroundColor: "#ffffff", TextColor: "#222222", HeadingColor: "#000000", AccentColor: "#d7263d", FontFamily: "'Helvetica Neue', sans-serif", FontSize: "16px", BorderRadius: "0", Padding: "12px"},
	models.ThemeDark:     {BackgroundColor: "#111827", TextColor: "#d1d5db", HeadingColor: "#f9fafb", AccentColor: "#60a5fa", FontFamily: "system-ui, sans-serif", FontSize: "16px", BorderRadius: "8px", Padding: "16px"},
}

// GenerateCSS maps the widget styling onto rules scoped under the widget
// class. The tenant's CustomCSS is appended last so its overrides always
// win over generated rules.
func GenerateCSS(w models.WidgetConfig) string {
	styling := resolveStyling(w)
	scope := fmt.Sprintf(".storyslip-widget--%s.storyslip-widget--theme-%s", w.Type, w.Theme)

	var b strings.Builder

	fmt.Fprintf(&b, "%s{", scope)
	writeRule(&b, "background", styling.BackgroundColor)
	writeRule(&b, "color", styling.TextColor)
	writeRule(&b, "font-family", styling.FontFamily)
	writeRule(&b, "font-size", styling.FontSize)
	writeRule(&b, "border-radius", styling.BorderRadius)
	writeRule(&b, "padding", styling.Padding)
	writeRule(&b, "width", styling.Width)
	writeRule(&b, "height", styling.Height)
	b.WriteString("}\n")

	fmt.Fprintf(&b, "%s .storyslip-item-title a{", scope)
	writeRule(&b, "color", styling.HeadingColor)
	b.WriteString("text-decoration:none}\n")

	fmt.Fprintf(&b, "%s .storyslip-item-title a:hover{", scope)
	writeRule(&b, "color", styling.AccentColor)
	b.WriteString("}\n")

	fmt.Fprintf(&b, "%s .storyslip-pagination button{", scope)
	writeRule(&b, "color", styling.AccentColor)
	writeRule(&b, "border-radius", styling.BorderRadius)
	b.WriteString("}\n")

	fmt.Fprintf(&b, "%s .storyslip-item-meta{opacity:.72;font-size:.85em}\n", scope)

	b.WriteString(layoutCSS(w, scope))

	if w.Styling.CustomCSS != "" {
		b.WriteString("\n/* custom */\n")
		b.WriteString(w.Styling.CustomCSS)
		b.WriteString("\n")
	}

	return b.String()
}

func layoutCSS(w models.WidgetConfig, scope string) string {
	itemsScope := scope + " .storyslip-items"

	switch w.Layout {
	case models.LayoutGrid:
		return fmt.Sprintf("%s{display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:16px}\n", itemsScope)
	case models.LayoutList:
		return fmt.Sprintf("%s{display:flex;flex-direction:column;gap:12px}\n", itemsScope)
	case models.LayoutMasonry:
		return fmt.Sprintf("%s{columns:3 240px;column-gap:16px}\n%s .storyslip-item{break-inside:avoid;margin-bottom:16px}\n", itemsScope, scope)
	case models.LayoutCarousel:
		return fmt.Sprintf("%s{display:flex;overflow-x:auto;scroll-snap-type:x mandatory;gap:16px}\n%s .storyslip-item{flex:0 0 280px;scroll-snap-align:start}\n", itemsScope, scope)
	case models.LayoutMagazine:
		return fmt.Sprintf("%s{display:grid;grid-template-columns:2fr 1fr 1fr;gap:16px}\n%s .storyslip-item:first-child{grid-row:span 2}\n", itemsScope, scope)
	}
	return ""
}

func resolveStyling(w models.WidgetConfig) models.WidgetStyling {
	styling := themeDefaults[w.Theme]

	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	override(&styling.BackgroundColor, w.Styling.BackgroundColor)
	override(&styling.TextColor, w.Styling.TextColor)
	override(&styling.HeadingColor, w.Styling.HeadingColor)
	override(&styling.AccentColor, w.Styling.AccentColor)
	override(&styling.FontFamily, w.Styling.FontFamily)
	override(&styling.FontSize, w.Styling.FontSize)
	override(&styling.BorderRadius, w.Styling.BorderRadius)
	override(&styling.Padding, w.Styling.Padding)
	override(&styling.Width, w.Styling.Width)
	override(&styling.Height, w.Styling.Height)

	return styling
}

func writeRule(b *strings.Builder, property, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s:%s;", property, value)
}
