package layouts

import (
	"strings"

	"github.com/codr1/plantfloor/internal/models"
)

// ThemeCSS renders theme as a :root rule of CSS custom properties. Empty or
// unrecognized token values are skipped so the stylesheet defaults apply.
func ThemeCSS(theme models.ThemeRecord) string {
	var b strings.Builder
	b.WriteString(":root{")
	for _, token := range theme.Config.Tokens() {
		value := strings.TrimSpace(token.Value)
		if value == "" || !models.IsCSSColor(value) {
			continue
		}
		b.WriteString(token.CSSVar())
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}
