package htmlx

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]struct{}{
	"p": {}, "br": {}, "div": {}, "section": {}, "article": {},
	"ul": {}, "ol": {}, "li": {}, "table": {}, "tr": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "hr": {},
}

// Strip renders HTML as plain text for the text/plain part of an email.
// Script and style contents are dropped, block elements become line breaks,
// and whitespace runs collapse. Entities come back unescaped from the
// tokenizer.
func Strip(source string) string {
	z := html.NewTokenizer(strings.NewReader(source))
	var b strings.Builder
	skip := 0
	for {
		switch tt := z.Next(); tt {
		case html.ErrorToken:
			// io.EOF or malformed input, either way return what we have.
			return normalize(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if _, ok := blockTags[tag]; ok {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if skip > 0 {
					skip--
				}
				continue
			}
			if _, ok := blockTags[tag]; ok {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				// Line breaks inside a text node are source formatting, not
				// content. Only block tags produce output line breaks.
				b.WriteString(strings.Map(flattenSpace, string(z.Text())))
			}
		}
	}
}

func flattenSpace(r rune) rune {
	switch r {
	case '\n', '\r', '\t':
		return ' '
	default:
		return r
	}
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}
