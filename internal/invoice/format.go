package invoice

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount as "$1,234.50". Negative amounts keep the
// sign after the symbol ("$-5.00").
func FormatCurrency(amount float64) string {
	return "$" + amountPrinter.Sprintf("%.2f", amount)
}

// toCP1252 maps text onto the core-font encoding. Runes with no cp1252 code
// point become '?'.
func toCP1252(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}
