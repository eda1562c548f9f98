package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces markup to its visible text. Text nodes are concatenated
// without separators so digit runs split across adjacent elements survive,
// matching how the merchant renders barcodes. Script and style content is
// dropped.
func StripHTML(input string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(input))

	var b strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isNonTextTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isNonTextTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func isNonTextTag(name string) bool {
	return name == "script" || name == "style"
}
