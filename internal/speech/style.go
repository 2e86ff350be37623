package speech

import "strings"

// ParseStyleDirective splits an inline style directive off the front of a
// reply. The directive form is ":<style> <rest>": a leading colon, a style
// token without spaces, one space, then the spoken text.
//
// A reply with no leading colon is passed through unchanged. A colon with no
// following space (":onlystyle") is also treated as plain spoken text rather
// than a style with empty speech; silently synthesizing nothing would be
// worse than speaking the odd-looking token.
func ParseStyleDirective(text string) (style, spoken string) {
	if !strings.HasPrefix(text, ":") {
		return "", text
	}
	rest := text[1:]
	idx := strings.IndexByte(rest, ' ')
	if idx <= 0 {
		return "", text
	}
	return rest[:idx], rest[idx+1:]
}
