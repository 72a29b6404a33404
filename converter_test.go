package formattext

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// checkBounds 检查所有实体都落在文本范围内且长度为正
func checkBounds(t *testing.T, input string, ft FormattedText) {
	t.Helper()
	size := UTF16Len(ft.Text)
	for _, e := range ft.Entities {
		if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > size {
			t.Errorf("input %q: entity %+v out of range for text %q (len %d)", input, e, ft.Text, size)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     []Option
		wantText string
		want     []Entity
	}{
		{
			name:     "symmetric markers pair up",
			input:    "**a** **b**",
			wantText: "a b",
			want: []Entity{
				{Type: Bold, Offset: 0, Length: 1},
				{Type: Bold, Offset: 2, Length: 1},
			},
		},
		{
			name:     "italic nested in bold",
			input:    "**bold _and italic_**",
			wantText: "bold and italic",
			want: []Entity{
				{Type: Bold, Offset: 0, Length: 15},
				{Type: Italic, Offset: 5, Length: 10},
			},
		},
		{
			name:     "code content is literal",
			input:    "`**not bold**`",
			wantText: "**not bold**",
			want:     []Entity{{Type: Code, Offset: 0, Length: 12}},
		},
		{
			name:     "overlap resolved first wins",
			input:    "**a _b**c_",
			wantText: "a _bc_",
			want:     []Entity{{Type: Bold, Offset: 0, Length: 4}},
		},
		{
			name:     "markdown link gets https scheme",
			input:    "[site](example.com)",
			opts:     []Option{WithAllowMarkdownLinks(true)},
			wantText: "site",
			want:     []Entity{{Type: TextLink, Offset: 0, Length: 4, URL: "https://example.com"}},
		},
		{
			name:     "markdown link to bare address becomes email",
			input:    "write [me](me@example.org)",
			opts:     []Option{WithAllowMarkdownLinks(true)},
			wantText: "write me",
			want:     []Entity{{Type: Email, Offset: 6, Length: 2}},
		},
		{
			name:     "markdown links disabled",
			input:    "[site](example.com)",
			wantText: "[site](example.com)",
		},
		{
			name:     "plain text is trimmed",
			input:    "  hello world \n",
			wantText: "hello world",
		},
		{
			name:     "unterminated marker stays literal",
			input:    "**bold",
			wantText: "**bold",
		},
		{
			name:     "empty markdown interior stays literal",
			input:    "****",
			wantText: "****",
		},
		{
			name:     "empty tag dropped",
			input:    "<b></b>x",
			wantText: "x",
		},
		{
			name:     "simple tags",
			input:    "<b>bold</b> <i>it</i> <u>u</u> <s>s</s>",
			wantText: "bold it u s",
			want: []Entity{
				{Type: Bold, Offset: 0, Length: 4},
				{Type: Italic, Offset: 5, Length: 2},
				{Type: Underline, Offset: 8, Length: 1},
				{Type: Strikethrough, Offset: 10, Length: 1},
			},
		},
		{
			name:     "fenced code with language",
			input:    "```go\nfmt.Println()\n```",
			wantText: "fmt.Println()",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 13, Language: "go"}},
		},
		{
			name:     "spoiler",
			input:    "||secret||",
			wantText: "secret",
			want:     []Entity{{Type: Spoiler, Offset: 0, Length: 6}},
		},
		{
			name:     "blockquote",
			input:    "<blockquote>quote</blockquote>",
			wantText: "quote",
			want:     []Entity{{Type: Blockquote, Offset: 0, Length: 5}},
		},
		{
			name:     "mention name",
			input:    `<span data-entity-type="text_mention" data-user-id="42">Bob</span>`,
			wantText: "Bob",
			want:     []Entity{{Type: TextMention, Offset: 0, Length: 3, UserID: "42"}},
		},
		{
			name:     "link text equal to href",
			input:    `<a href="https://x.org">https://x.org</a>`,
			wantText: "https://x.org",
			want:     []Entity{{Type: URL, Offset: 0, Length: 13}},
		},
		{
			name:     "custom emoji",
			input:    "[🔥](customEmoji:123)",
			wantText: "🔥",
			want:     []Entity{{Type: CustomEmoji, Offset: 0, Length: 2, CustomEmojiID: "123"}},
		},
		{
			name:     "custom emoji unsupported",
			input:    "[🔥](customEmoji:123)",
			opts:     []Option{WithCustomEmojiSupport(false)},
			wantText: "[🔥]",
		},
		{
			name:     "offsets in utf16 units",
			input:    "😀 **hi**",
			wantText: "😀 hi",
			want:     []Entity{{Type: Bold, Offset: 3, Length: 2}},
		},
		{
			name:     "zero width characters removed",
			input:    "a\u200b**b**",
			wantText: "ab",
			want:     []Entity{{Type: Bold, Offset: 1, Length: 1}},
		},
		{
			name:     "character references decoded",
			input:    "<b>a &lt; b</b>",
			wantText: "a < b",
			want:     []Entity{{Type: Bold, Offset: 0, Length: 5}},
		},
		{
			name:     "editor divs become newlines",
			input:    "<div>one</div><div>two</div>",
			wantText: "one\ntwo",
		},
		{
			name:     "skip markdown leaves links alone",
			input:    "[site](example.com) <b>x</b>",
			opts:     []Option{WithSkipMarkdown(true), WithAllowMarkdownLinks(true)},
			wantText: "[site](example.com) x",
			want:     []Entity{{Type: Bold, Offset: 20, Length: 1}},
		},
		{
			name:     "depth capped at three",
			input:    "<b><i><u><s>deep</s></u></i></b>",
			wantText: "deep",
			want: []Entity{
				{Type: Bold, Offset: 0, Length: 4},
				{Type: Italic, Offset: 0, Length: 4},
				{Type: Underline, Offset: 0, Length: 4},
			},
		},
		{
			name:     "depth capped at one",
			input:    "<b><i>x</i></b>",
			opts:     []Option{WithMaxDepth(1)},
			wantText: "x",
			want:     []Entity{{Type: Bold, Offset: 0, Length: 1}},
		},
		{
			name:     "invalid depth falls back to default",
			input:    "**a**",
			opts:     []Option{WithMaxDepth(0)},
			wantText: "a",
			want:     []Entity{{Type: Bold, Offset: 0, Length: 1}},
		},
		{
			name:     "link label with inline code",
			input:    "[a `b` c](example.com)",
			opts:     []Option{WithAllowMarkdownLinks(true)},
			wantText: "a b c",
			want: []Entity{
				{Type: TextLink, Offset: 0, Length: 5, URL: "https://example.com"},
				{Type: Code, Offset: 2, Length: 1},
			},
		},
		{
			name:     "pre wrapping code with class",
			input:    `<pre><code class="language-go">x := 1</code></pre>`,
			wantText: "x := 1",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 6, Language: "go"}},
		},
		{
			name:     "pre wrapping code with data language",
			input:    `<pre><code data-language="sql">select 1</code></pre>`,
			wantText: "select 1",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 8, Language: "sql"}},
		},
		{
			name:     "overlapping tag removed from text",
			input:    "<i>a <b>b</i> c</b>",
			wantText: "a b c",
			want:     []Entity{{Type: Italic, Offset: 0, Length: 3}},
		},
		{
			name:     "image without custom emoji support",
			input:    `a<img alt="😀" data-document-id="1">`,
			opts:     []Option{WithCustomEmojiSupport(false)},
			wantText: "a😀",
		},
		{
			name:     "custom emoji span without support",
			input:    `<span data-entity-type="custom_emoji" data-document-id="1">🔥</span> <b>x</b>`,
			opts:     []Option{WithCustomEmojiSupport(false)},
			wantText: "🔥 x",
			want:     []Entity{{Type: Bold, Offset: 3, Length: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, tt.opts...)
			if got.Text != tt.wantText {
				t.Errorf("Parse(%q) text = %q, want %q", tt.input, got.Text, tt.wantText)
			}
			if diff := cmp.Diff(tt.want, got.Entities); diff != "" {
				t.Errorf("Parse(%q) entities mismatch (-want +got):\n%s", tt.input, diff)
			}
			checkBounds(t, tt.input, got)
		})
	}
}

// TestParse_EntitiesInBounds 所有实体都在文本范围内
func TestParse_EntitiesInBounds(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"**",
		"**a** _b_ ~~c~~ ||d||",
		"  **  padded  **  ",
		"**a _b**c_ `d` **e**",
		"<b><i><u><s><b>x</b></s></u></i></b>",
		"😀 <b>🔥 _x_</b> 👍",
		"<a href=\"https://x.org\">x <b>y</b></a>",
		"<code><b>not</b></code> <pre data-language=\"py\">x</pre>",
		"```\nunterminated",
		"[broken](",
		"<b>unclosed <i>tags",
		"\u200b\u200b**\u200bz\u200b**\u200b",
		"<img alt=\"🔥\" data-document-id=\"1\"> <img alt=\"x\">",
		"__under__ and _single_ *star*",
	}
	for _, in := range inputs {
		for _, opts := range [][]Option{nil, {WithAllowMarkdownLinks(true)}, {WithMaxDepth(1)}} {
			checkBounds(t, in, Parse(in, opts...))
		}
	}
}

// TestParse_NoSpuriousNesting 不重叠的标记不共享字符
func TestParse_NoSpuriousNesting(t *testing.T) {
	ft := Parse("**a** _b_ ~~c~~ ||d||")
	if ft.Text != "a b c d" {
		t.Fatalf("text = %q, want %q", ft.Text, "a b c d")
	}
	if len(ft.Entities) != 4 {
		t.Fatalf("got %d entities, want 4: %+v", len(ft.Entities), ft.Entities)
	}
	for i, a := range ft.Entities {
		for _, b := range ft.Entities[i+1:] {
			if a.Offset < b.Offset+b.Length && b.Offset < a.Offset+a.Length {
				t.Errorf("entities %+v and %+v overlap", a, b)
			}
		}
	}
}

// TestParse_Deterministic 相同输入总是得到相同的实体列表
func TestParse_Deterministic(t *testing.T) {
	const input = "**a _b**c_ <i>x <b>y</i> z</b> ~~q||w~~e||"
	first := Parse(input)
	for i := 0; i < 50; i++ {
		if diff := cmp.Diff(first, Parse(input)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

// TestParse_EntityText 实体覆盖的文本正确
func TestParse_EntityText(t *testing.T) {
	ft := Parse("say **héllo 🌍** and `x := 1`")
	want := map[EntityType]string{Bold: "héllo 🌍", Code: "x := 1"}
	for _, e := range ft.Entities {
		if got := EntityText(ft.Text, e); got != want[e.Type] {
			t.Errorf("%s covers %q, want %q", e.Type, got, want[e.Type])
		}
	}
}

// TestFormattedText_JSON 没有实体时省略 entities 字段
func TestFormattedText_JSON(t *testing.T) {
	data, err := json.Marshal(Parse("plain"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"text":"plain"}` {
		t.Errorf("json = %s", data)
	}

	data, err = json.Marshal(Parse("[x](a.b)", WithAllowMarkdownLinks(true)))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"text":"x","entities":[{"type":"text_link","offset":0,"length":1,"url":"https://a.b"}]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

// TestParseTree_CustomEmojiUnsupported 节点树同样遵守自定义 emoji 开关
func TestParseTree_CustomEmojiUnsupported(t *testing.T) {
	root := ElementNode("div", nil,
		TextNode("hi "),
		ElementNode("img", map[string]string{"alt": "🔥", "data-document-id": "5368324170671202286"}),
	)
	got := ParseTree(root, WithCustomEmojiSupport(false))
	if got.Text != "hi 🔥" {
		t.Errorf("text = %q, want %q", got.Text, "hi 🔥")
	}
	if len(got.Entities) != 0 {
		t.Errorf("entities = %+v, want none", got.Entities)
	}
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		name     string
		root     *Node
		wantText string
		want     []Entity
	}{
		{
			name: "custom emoji image",
			root: ElementNode("div", nil,
				TextNode("hi "),
				ElementNode("img", map[string]string{"alt": "🔥", "data-document-id": "5368324170671202286"}),
			),
			wantText: "hi 🔥",
			want:     []Entity{{Type: CustomEmoji, Offset: 3, Length: 2, CustomEmojiID: "5368324170671202286"}},
		},
		{
			name:     "image without document id",
			root:     ElementNode("img", map[string]string{"alt": "pic"}),
			wantText: "pic",
		},
		{
			name: "links",
			root: ElementNode("p", nil,
				ElementNode("a", map[string]string{"href": "https://go.dev"}, TextNode("Go")),
				TextNode(" "),
				ElementNode("a", map[string]string{"href": "mailto:a@b.c"}, TextNode("mail")),
				TextNode(" "),
				ElementNode("a", map[string]string{"href": "tel:+100"}, TextNode("call")),
				TextNode(" "),
				ElementNode("a", nil, TextNode("none")),
			),
			wantText: "Go mail call none",
			want: []Entity{
				{Type: TextLink, Offset: 0, Length: 2, URL: "https://go.dev"},
				{Type: Email, Offset: 3, Length: 4},
				{Type: PhoneNumber, Offset: 8, Length: 4},
			},
		},
		{
			name: "explicit entity type",
			root: ElementNode("span", map[string]string{"data-entity-type": "text_mention", "data-user-id": "7"},
				TextNode("Ann")),
			wantText: "Ann",
			want:     []Entity{{Type: TextMention, Offset: 0, Length: 3, UserID: "7"}},
		},
		{
			name: "unknown tag contributes text",
			root: ElementNode("div", nil,
				ElementNode("abbr", nil, TextNode("HTML")),
				ElementNode("strong", nil, TextNode("!")),
			),
			wantText: "HTML!",
			want:     []Entity{{Type: Bold, Offset: 4, Length: 1}},
		},
		{
			name: "blocks and breaks",
			root: ElementNode("div", nil,
				ElementNode("p", nil, TextNode("one")),
				ElementNode("p", nil, TextNode("two"), ElementNode("br", nil), TextNode("three")),
			),
			wantText: "one\ntwo\nthree",
		},
		{
			name: "pre with code child",
			root: ElementNode("pre", nil,
				ElementNode("code", map[string]string{"class": "language-go"}, TextNode("x := 1"))),
			wantText: "x := 1",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 6, Language: "go"}},
		},
		{
			name: "depth capped",
			root: ElementNode("b", nil, ElementNode("i", nil, ElementNode("u", nil,
				ElementNode("s", nil, TextNode("x"))))),
			wantText: "x",
			want: []Entity{
				{Type: Bold, Offset: 0, Length: 1},
				{Type: Italic, Offset: 0, Length: 1},
				{Type: Underline, Offset: 0, Length: 1},
			},
		},
		{
			name:     "nil root",
			wantText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTree(tt.root)
			if got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
			if diff := cmp.Diff(tt.want, got.Entities); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestParseTree_CustomEmojiLength 自定义 emoji 长度等于 alt 的 UTF-16 长度
func TestParseTree_CustomEmojiLength(t *testing.T) {
	alt := "👨\u200d👩\u200d👧"
	ft := ParseTree(ElementNode("img", map[string]string{"alt": alt, "data-document-id": "99"}))
	if len(ft.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(ft.Entities))
	}
	e := ft.Entities[0]
	if e.Type != CustomEmoji || e.CustomEmojiID != "99" {
		t.Errorf("entity = %+v", e)
	}
	if e.Length != UTF16Len(alt) {
		t.Errorf("length = %d, want %d", e.Length, UTF16Len(alt))
	}
}

func TestParseHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		want     []Entity
	}{
		{
			name:     "paragraphs",
			input:    "<p>Hello <b>world</b></p><p>Bye</p>",
			wantText: "Hello world\nBye",
			want:     []Entity{{Type: Bold, Offset: 6, Length: 5}},
		},
		{
			name:     "spoiler tag",
			input:    "<tg-spoiler>s</tg-spoiler>",
			wantText: "s",
			want:     []Entity{{Type: Spoiler, Offset: 0, Length: 1}},
		},
		{
			name:     "pre code",
			input:    `<pre><code class="language-go">x := 1</code></pre>`,
			wantText: "x := 1",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 6, Language: "go"}},
		},
		{
			name:     "nbsp and references",
			input:    "a&nbsp;<i>&lt;b&gt;</i>",
			wantText: "a <b>",
			want:     []Entity{{Type: Italic, Offset: 2, Length: 3}},
		},
		{
			name:     "custom emoji",
			input:    `<img alt="🔥" data-document-id="1">`,
			wantText: "🔥",
			want:     []Entity{{Type: CustomEmoji, Offset: 0, Length: 2, CustomEmojiID: "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHTML(tt.input)
			if err != nil {
				t.Fatalf("ParseHTML(%q) error: %v", tt.input, err)
			}
			if got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
			if diff := cmp.Diff(tt.want, got.Entities); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		want     []Entity
	}{
		{
			name:     "heading and paragraph",
			input:    "# Title\n\nSome **bold** text",
			wantText: "📌 Title\n\nSome bold text",
			want: []Entity{
				{Type: Bold, Offset: 3, Length: 5},
				{Type: Underline, Offset: 3, Length: 5},
				{Type: Bold, Offset: 15, Length: 4},
			},
		},
		{
			name:     "fenced code",
			input:    "```go\nx := 1\n```",
			wantText: "x := 1",
			want:     []Entity{{Type: Pre, Offset: 0, Length: 6, Language: "go"}},
		},
		{
			name:     "spoiler",
			input:    "||hidden|| text",
			wantText: "hidden text",
			want:     []Entity{{Type: Spoiler, Offset: 0, Length: 6}},
		},
		{
			name:     "link",
			input:    "[Google](https://google.com)",
			wantText: "Google",
			want:     []Entity{{Type: TextLink, Offset: 0, Length: 6, URL: "https://google.com"}},
		},
		{
			name:     "list",
			input:    "- one\n- two",
			wantText: "⦁ one\n⦁ two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkdown(tt.input)
			if got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
			if diff := cmp.Diff(tt.want, got.Entities); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewConverter(t *testing.T) {
	for _, depth := range []int{0, -1, 17} {
		_, err := NewConverter(WithMaxDepth(depth))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewConverter(WithMaxDepth(%d)) error = %v, want ErrInvalidConfig", depth, err)
		}
	}

	c, err := NewConverter(WithAllowMarkdownLinks(true), WithMaxDepth(2))
	if err != nil {
		t.Fatalf("NewConverter() error: %v", err)
	}
	if cfg := c.Config(); !cfg.AllowMarkdownLinks || cfg.MaxDepth != 2 || !cfg.CustomEmojiSupported {
		t.Errorf("Config() = %+v", cfg)
	}

	ft := c.Parse("[a](x.y) <b><i><u>z</u></i></b>")
	want := []Entity{
		{Type: TextLink, Offset: 0, Length: 1, URL: "https://x.y"},
		{Type: Bold, Offset: 2, Length: 1},
		{Type: Italic, Offset: 2, Length: 1},
	}
	if ft.Text != "a z" {
		t.Errorf("text = %q", ft.Text)
	}
	if diff := cmp.Diff(want, ft.Entities); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

// TestDefaultConfig 返回的是副本
func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	c.MaxDepth = 9
	if got := DefaultConfig().MaxDepth; got != DefaultMaxDepth {
		t.Errorf("DefaultConfig().MaxDepth = %d after mutation, want %d", got, DefaultMaxDepth)
	}
}
