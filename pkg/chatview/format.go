package chatview

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/chatrelay/core/chat"
)

// Palette is the set of colors assigned to users that don't bring their own.
var Palette = []string{
	"#FF4500", "#2E8B57", "#1E90FF", "#DAA520", "#D2691E",
	"#9ACD32", "#FF69B4", "#8A2BE2", "#5F9EA0", "#B22222",
	"#00FF7F", "#CC6600", "#3CB371", "#6A5ACD", "#E9967A",
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Normalize converts s to NFC and replaces control characters: line breaks and tabs
// become spaces, everything else is dropped.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}

// UserColor returns the message's own color if it is a valid hex color, otherwise a
// palette color that is stable for the same user on the same provider.
func UserColor(m chat.Message) string {
	if hexColor.MatchString(m.UserColor) {
		return m.UserColor
	}
	key := m.UserID
	if key == "" {
		key = m.UserName
	}
	h := xxhash.Sum64String(m.ProviderID + "\x00" + key)
	return Palette[h%uint64(len(Palette))]
}

// HTML renders a message as a rich-text chat line:
//
//	<b><font color="#1E90FF">alice</font></b>: hello
//
// Every field is HTML-escaped.
func HTML(m chat.Message) string {
	return fmt.Sprintf(`<b><font color="%s">%s</font></b>: %s`,
		html.EscapeString(UserColor(m)),
		html.EscapeString(Normalize(m.UserName)),
		html.EscapeString(Normalize(m.Text)))
}

// HTMLBatch renders every message in the batch with HTML.
func HTMLBatch(msgs []chat.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HTML(m))
	}
	return out
}
