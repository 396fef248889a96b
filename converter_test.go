// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package markify

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestRenderMarkdownTable(t *testing.T) {
	records := [][]string{
		{"name", "age"},
		{"alice", "30"},
		{"bob", "25", "extra"}, // truncated to header width
		{"carol"},              // padded to header width
	}

	got := renderMarkdownTable(records)

	for _, want := range []string{
		"| name | age | ",
		"| --- | --- | ",
		"| alice | 30 | ",
		"| bob | 25 | ",
		"| carol |  | ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "extra") {
		t.Errorf("overlong row was not truncated:\n%s", got)
	}
}

func TestParseStyleMap(t *testing.T) {
	sm := parseStyleMap("Section Title => h2\nSubsection => H3\nbogus line\nNope => h9\n")

	if got := sm["section title"]; got != 2 {
		t.Errorf("section title level = %d, want 2", got)
	}
	if got := sm["subsection"]; got != 3 {
		t.Errorf("subsection level = %d, want 3", got)
	}
	if _, ok := sm["bogus line"]; ok {
		t.Error("malformed line was not ignored")
	}
	if _, ok := sm["nope"]; ok {
		t.Error("out-of-range heading level was not ignored")
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	styles := map[string]styleInfo{
		"MyStyle":  {name: "Section Title"},
		"Heading2": {name: "heading 2"},
	}
	styleMap := parseStyleMap("Section Title => h2")

	tests := []struct {
		styleID string
		want    int
	}{
		{"Heading1", 1},
		{"heading 4", 4},
		{"MyStyle", 2}, // via style map on display name
		{"Heading2", 2},
		{"BodyText", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := docxHeadingLevel(tt.styleID, styles, styleMap); got != tt.want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.styleID, got, tt.want)
		}
	}
}

func TestStyleMapOverridesBuiltin(t *testing.T) {
	styleMap := parseStyleMap("Heading1 => h5")
	if got := docxHeadingLevel("Heading1", nil, styleMap); got != 5 {
		t.Errorf("docxHeadingLevel = %d, want style map to win with 5", got)
	}
}

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", "<html><head><title>Hello</title></head></html>", "Hello"},
		{"whitespace", "<title>  Padded  </title>", "Padded"},
		{"missing", "<html><body>no title</body></html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractHTMLTitle(tt.html); got != tt.want {
				t.Errorf("extractHTMLTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemoveScriptAndStyle(t *testing.T) {
	in := `<p>keep</p><script type="text/javascript">drop()</script><style>.x{}</style><p>also keep</p>`
	got := removeScriptAndStyle(in)

	if strings.Contains(got, "drop()") || strings.Contains(got, ".x{}") {
		t.Errorf("script/style content survived: %q", got)
	}
	if !strings.Contains(got, "keep") || !strings.Contains(got, "also keep") {
		t.Errorf("body content lost: %q", got)
	}
}

func TestTruncateDataURIs(t *testing.T) {
	long := strings.Repeat("A", 100)
	in := "![img](data:image/png;base64," + long + ")"

	got := truncateDataURIs(in)
	if strings.Contains(got, long) {
		t.Errorf("long data URI not truncated: %q", got)
	}
	if !strings.Contains(got, "data:image/png;base64,...") {
		t.Errorf("truncation marker missing: %q", got)
	}

	short := "![img](data:image/png;base64,QUJD)"
	if got := truncateDataURIs(short); got != short {
		t.Errorf("short data URI altered: %q", got)
	}
}

func TestPicturePlaceholder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Picture 3", "Picture3.jpg"},
		{"My Image (final).png", "MyImagefinalpng.jpg"},
		{"chart-1", "chart1.jpg"},
	}

	for _, tt := range tests {
		if got := picturePlaceholder(tt.in); got != tt.want {
			t.Errorf("picturePlaceholder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeTextCharsetHint(t *testing.T) {
	// "café" in Latin-1
	latin1 := []byte{'c', 'a', 'f', 0xE9}

	got := decodeText(latin1, "iso-8859-1")
	if got != "café" {
		t.Errorf("decodeText = %q, want %q", got, "café")
	}
}

func TestDecodeTextUTF8Passthrough(t *testing.T) {
	in := "plain utf-8 with 日本語"
	if got := decodeText([]byte(in), ""); got != in {
		t.Errorf("decodeText = %q, want %q", got, in)
	}
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name  string
		found bool
	}{
		{"utf-8", true},
		{"ISO-8859-1", true},
		{"shift_jis", true},
		{"cp932", true},
		{"euc-kr", true},
		{"gb18030", true},
		{"windows-1252", true},
		{"klingon", false},
	}

	for _, tt := range tests {
		enc := lookupEncoding(tt.name)
		if (enc != nil) != tt.found {
			t.Errorf("lookupEncoding(%q) found = %v, want %v", tt.name, enc != nil, tt.found)
		}
	}

	if enc := lookupEncoding("latin1"); enc != charmap.ISO8859_1 && enc != charmap.Windows1252 {
		t.Errorf("lookupEncoding(latin1) = %v", enc)
	}
}
