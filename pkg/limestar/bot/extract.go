package bot

import (
	"regexp"
	"strings"
)

// urlPattern matches explicit http(s) URLs or bare domains like example.com/path
var urlPattern = regexp.MustCompile(
	`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+|(?:www\.)?[a-zA-Z0-9][-a-zA-Z0-9]*\.[a-zA-Z]{2,}(?:/[^\s<>"{}|\\^` + "`" + `\[\]]*)?`,
)

// ExtractURLAndNote finds the first URL in a message; any trailing text
// becomes the user note
func ExtractURLAndNote(text string) (url, note string) {
	loc := urlPattern.FindStringIndex(text)
	if loc == nil {
		return "", ""
	}

	url = text[loc[0]:loc[1]]
	note = strings.TrimSpace(text[loc[1]:])
	return url, note
}
