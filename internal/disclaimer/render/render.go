// Package render turns disclaimer templates into self-contained HTML
// fragments suitable for embedding in email bodies. Email clients ignore
// external stylesheets, so everything is inline-styled.
package render

import (
	"fmt"
	"strings"

	"sigclause/internal/disclaimer/models"
)

// Renderer defaults, applied field-by-field under any author styling.
const (
	defaultBackgroundColor = "transparent"
	defaultBorderColor     = "#e0e0e0"
	defaultTextColor       = "#666666"
	defaultFontSize        = "11px"
	defaultPadding         = "8px 0"
)

// escaper escapes the five HTML-significant characters. Ampersand is listed
// first so already-escaped entities are not double-escaped on the way in.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Template renders one disclaimer template to an HTML fragment.
//
// Pre-authored HTML wins: when ContentHTML is non-empty it is returned
// verbatim — authors get full control, no escaping, no style injection.
// Otherwise the plain-text content is escaped and wrapped in a div whose
// top border and margin separate it visually from the signature above.
func Template(t models.Template) string {
	if t.ContentHTML != "" {
		return t.ContentHTML
	}

	s := mergeStyling(t.Styling)
	return fmt.Sprintf(
		`<div style="margin-top:12px;border-top:1px solid %s;background-color:%s;color:%s;font-size:%s;padding:%s;">%s</div>`,
		s.BorderColor, s.BackgroundColor, s.TextColor, s.FontSize, s.Padding,
		escaper.Replace(t.Content),
	)
}

// Combine concatenates rendered fragments in the given order. No separator
// is inserted: each fragment carries its own margin-top spacing.
func Combine(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f)
	}
	return b.String()
}

// mergeStyling overlays author styling on the defaults. A nil or partially
// filled Styling falls back per field rather than failing the render.
func mergeStyling(s *models.Styling) models.Styling {
	merged := models.Styling{
		BackgroundColor: defaultBackgroundColor,
		BorderColor:     defaultBorderColor,
		TextColor:       defaultTextColor,
		FontSize:        defaultFontSize,
		Padding:         defaultPadding,
	}
	if s == nil {
		return merged
	}
	if s.BackgroundColor != "" {
		merged.BackgroundColor = s.BackgroundColor
	}
	if s.BorderColor != "" {
		merged.BorderColor = s.BorderColor
	}
	if s.TextColor != "" {
		merged.TextColor = s.TextColor
	}
	if s.FontSize != "" {
		merged.FontSize = s.FontSize
	}
	if s.Padding != "" {
		merged.Padding = s.Padding
	}
	return merged
}
