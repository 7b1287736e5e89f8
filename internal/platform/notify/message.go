package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/eurobrokers/leadcapture/internal/domain"
)

func leadSubject(l *domain.Lead) string {
	return fmt.Sprintf("Nová poptávka #%d: %s, %s", l.ID, l.PropertyType, l.City)
}

type field struct{ label, value string }

func leadFields(l *domain.Lead) []field {
	fs := []field{
		{"Jméno", l.FullName()},
		{"E-mail", l.Email},
		{"Telefon", l.Phone},
		{"Město", l.City},
		{"PSČ", l.PostalCode},
		{"Typ", l.PropertyType},
		{"Plocha", strconv.FormatFloat(l.Area, 'f', -1, 64) + " m²"},
	}
	if l.Layout != "" {
		fs = append(fs, field{"Dispozice", l.Layout})
	}
	if l.Balcony != "" {
		fs = append(fs, field{"Balkon", l.Balcony})
	}
	if l.Condition != "" {
		fs = append(fs, field{"Stav", l.Condition})
	}
	return fs
}

func leadText(l *domain.Lead) string {
	var b strings.Builder
	for _, f := range leadFields(l) {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}
	return b.String()
}

func leadHTML(l *domain.Lead) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, f := range leadFields(l) {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>",
			html.EscapeString(f.label), html.EscapeString(f.value))
	}
	b.WriteString("</table>")
	return b.String()
}
