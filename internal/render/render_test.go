package render_test

import (
	"strings"
	"testing"

	"counsel-backend/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderChunkPlain(t *testing.T) {
	t.Parallel()

	// 纯文本分片走快路径：chunk_html 就是转义后的分片本身
	first := render.RenderChunk("Hello, ", "", "")
	assert.Equal(t, "Hello, ", first.ChunkHTML)
	assert.Equal(t, "Hello, ", first.FullHTML)
	assert.False(t, first.Replace)

	second := render.RenderChunk("world.", "Hello, ", first.FullHTML)
	assert.Equal(t, "world.", second.ChunkHTML)
	assert.Equal(t, "Hello, world.", second.FullHTML)
	assert.False(t, second.Replace)

	assert.Equal(t, render.RenderDocument("Hello, world."), second.FullHTML)
}

func TestRenderChunkEscapesPlainText(t *testing.T) {
	t.Parallel()

	result := render.RenderChunk("a < b && c", "", "")
	assert.Equal(t, "a &lt; b &amp;&amp; c", result.ChunkHTML)
}

func TestRenderChunkStructural(t *testing.T) {
	t.Parallel()

	// 列表第二项会回溯改写 </ul>，必须退化为整体替换
	first := render.RenderChunk("- item one\n", "", "")
	require.Contains(t, first.FullHTML, "<li>item one</li>")

	second := render.RenderChunk("- item two", "- item one\n", first.FullHTML)
	assert.True(t, second.Replace)
	assert.Equal(t, second.FullHTML, second.ChunkHTML)
	assert.Equal(t, render.RenderDocument("- item one\n- item two"), second.FullHTML)
	assert.Contains(t, second.FullHTML, "<li>item two</li>")
}

func TestRenderChunkAppendOnlyStructural(t *testing.T) {
	t.Parallel()

	// 新段落只是追加，公共前缀保留时增量应是后缀
	acc := "# Title\n\nfirst paragraph\n\n"
	accHTML := render.RenderDocument(acc)

	result := render.RenderChunk("\nsecond paragraph\n", acc, accHTML)
	if !result.Replace {
		assert.Equal(t, accHTML+result.ChunkHTML, result.FullHTML)
	}
	assert.Equal(t, render.RenderDocument(acc+"\nsecond paragraph\n"), result.FullHTML)
}

func TestRenderChunkSplitMarker(t *testing.T) {
	t.Parallel()

	// 单独的 "-" 像纯文本，补全后必须按列表重渲染
	first := render.RenderChunk("-", "", "")
	assert.Equal(t, "-", first.ChunkHTML)

	second := render.RenderChunk(" item", "-", first.FullHTML)
	assert.True(t, second.Replace)
	assert.Equal(t, render.RenderDocument("- item"), second.FullHTML)
	assert.Contains(t, second.FullHTML, "<li>item</li>")
}

func TestRenderChunkEmpty(t *testing.T) {
	t.Parallel()

	result := render.RenderChunk("", "abc", "abc")
	assert.Empty(t, result.ChunkHTML)
	assert.Equal(t, "abc", result.FullHTML)
}

// 等价性：按序拼接所有 chunk_html（替换标记生效时重置）
// 必须等于整段纯文本的直接渲染结果
func TestRenderingEquivalence(t *testing.T) {
	t.Parallel()

	sequences := [][]string{
		{"Hello, ", "world."},
		{"- item one\n", "- item two"},
		{"plain start ", "# then a heading\n", "and ", "more text"},
		{"**bo", "ld** and `co", "de` spans"},
		{"1. first\n", "2. second\n", "3. third"},
		{"> quote\n", "continues\n", "\nnew paragraph"},
		{"text with <tags> ", "& ampersands"},
		// 控制符被逐 token 生成切成两半
		{"-", " item one\n", "-", " item two"},
		{"1", ". first\n", "2", ". second"},
		{"#", "# split heading\n", "body"},
	}

	for _, seq := range sequences {
		seq := seq
		t.Run(strings.Join(seq, "|"), func(t *testing.T) {
			t.Parallel()

			var plain, accHTML, assembled string
			for _, chunk := range seq {
				result := render.RenderChunk(chunk, plain, accHTML)
				if result.Replace {
					assembled = result.ChunkHTML
				} else {
					assembled += result.ChunkHTML
				}
				plain += chunk
				accHTML = result.FullHTML

				// 累积 HTML 始终等于全量重渲染（正确性判据）
				require.Equal(t, render.RenderDocument(plain), accHTML)
			}

			assert.Equal(t, render.RenderDocument(plain), assembled)
		})
	}
}

func TestHasStructure(t *testing.T) {
	t.Parallel()

	structural := []string{
		"# heading", "- item", "+ item", "1. numbered", "10. double digits",
		"**bold**", "`code`", "[link](x)", "> quote", "a | b", "---",
		"Title\n===",
	}
	for _, s := range structural {
		assert.True(t, render.HasStructure(s), s)
	}

	plain := []string{
		"Hello, world.", "a b c", "well-known phrase", "3.14 is pi",
		"version 10.4 shipped", "a = b", "",
	}
	for _, s := range plain {
		assert.False(t, render.HasStructure(s), s)
	}
}

func TestRenderDocumentPlain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", render.RenderDocument(""))
	assert.Equal(t, "no markup here", render.RenderDocument("no markup here"))
	assert.Contains(t, render.RenderDocument("# Title"), "<h1>")
}
