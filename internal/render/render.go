// Package render 实现增量 Markdown 渲染：把不断增长的纯文本缓冲
// 转换为最小的 HTML 增量。纯函数，不持有任何会话状态。
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Result RenderChunk 的输出。Replace 为 true 时 ChunkHTML 等于整份
// FullHTML，客户端应整体替换而非追加。
type Result struct {
	ChunkHTML string
	FullHTML  string
	Replace   bool
}

// RenderChunk 渲染单个增量分片。
//
// 快路径：拼接后的全文不含 Markdown 控制符时，直接转义追加。必须扫描
// 拼接后的文本而不是分片本身：控制符可能被逐 token 生成切成两半
// （"1" + ". first"），单看任何一半都像纯文本。慢路径：整文档重渲染，
// 取与上一次 HTML 的最长公共前缀之后的部分作为增量；前缀被回溯性改写
// （如列表闭合标签后移）时退化为整文档替换。
func RenderChunk(chunk, accumulatedPlain, accumulatedHTML string) Result {
	if chunk == "" {
		return Result{FullHTML: accumulatedHTML}
	}

	if !HasStructure(accumulatedPlain + chunk) {
		escaped := html.EscapeString(chunk)
		return Result{
			ChunkHTML: escaped,
			FullHTML:  accumulatedHTML + escaped,
		}
	}

	full := RenderDocument(accumulatedPlain + chunk)

	if accumulatedHTML == "" {
		return Result{ChunkHTML: full, FullHTML: full}
	}
	if strings.HasPrefix(full, accumulatedHTML) {
		return Result{
			ChunkHTML: full[len(accumulatedHTML):],
			FullHTML:  full,
		}
	}

	// 结构性分片改写了已输出的 HTML，降级为整体替换
	return Result{ChunkHTML: full, FullHTML: full, Replace: true}
}

// RenderDocument 渲染完整文档。纯文本只做转义；Markdown 走 goldmark；
// 渲染出错时降级为转义原文，绝不向上抛。
func RenderDocument(source string) string {
	if source == "" {
		return ""
	}
	if !HasStructure(source) {
		return html.EscapeString(source)
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return buf.String()
}

// HasStructure 快速扫描 Markdown 控制符，不做任何渲染。
// 行首的 "- " / "+ " / "10. " 视为列表标记，行首的 "=" 视为 setext
// 标题下划线，其余位置的连字符和数字是普通文本。
func HasStructure(s string) bool {
	lineStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '#', '*', '_', '`', '[', ']', '>', '~', '|':
			return true
		case '-', '+':
			if lineStart && i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '-') {
				return true
			}
		case '=':
			if lineStart {
				return true
			}
		default:
			if lineStart && c >= '0' && c <= '9' {
				j := i + 1
				for j < len(s) && s[j] >= '0' && s[j] <= '9' {
					j++
				}
				if j+1 < len(s) && s[j] == '.' && s[j+1] == ' ' {
					return true
				}
			}
		}
		lineStart = c == '\n'
	}
	return false
}
