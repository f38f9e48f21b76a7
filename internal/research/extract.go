// Copyright 2025 The Campaigner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package research

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// maxExtractRunes caps the text extracted from a single page.
const maxExtractRunes = 8000

// skipElements are subtrees that never contain article text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"nav":      true,
	"footer":   true,
	"iframe":   true,
	"svg":      true,
}

// ExtractText performs a best-effort extraction of the readable text of
// an HTML document: markup stripped, whitespace collapsed. A document
// that cannot be parsed yields "".
func ExtractText(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if runes := []rune(text); len(runes) > maxExtractRunes {
		text = string(runes[:maxExtractRunes])
	}
	return text
}
