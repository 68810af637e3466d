package chat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// imageToken 回复中的图片标记，兼容旧的葡语标记
var imageToken = regexp.MustCompile(`\[(?:IMAGE_SENT|IMAGEM_GERADA|IMAGEM_ENVIADA):\s*([^\]]*)\]`)

// SplitReply 将回复按 max 个字符切分
// 优先在换行或空白处切分，图片标记不会被切开
func SplitReply(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return []string{text}
	}

	tokens := tokenSpans(text)
	var chunks []string
	pos := 0
	for len(runes)-pos > max {
		cut := pos + breakPoint(runes[pos:pos+max])
		for _, t := range tokens {
			if cut > t[0] && cut < t[1] {
				if t[0] > pos {
					cut = t[0]
				} else {
					// 标记本身超过上限，整体放入一块
					cut = t[1]
				}
				break
			}
		}
		if chunk := strings.TrimSpace(string(runes[pos:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		pos = cut
	}
	if chunk := strings.TrimSpace(string(runes[pos:])); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// breakPoint 在窗口后半段寻找换行或空白，找不到时硬切
func breakPoint(window []rune) int {
	half := len(window) / 2
	for i := len(window) - 1; i >= half; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= half; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}
	return len(window)
}

// tokenSpans 返回图片标记的字符区间 [start, end)
func tokenSpans(text string) [][2]int {
	var spans [][2]int
	for _, loc := range imageToken.FindAllStringIndex(text, -1) {
		start := utf8.RuneCountInString(text[:loc[0]])
		spans = append(spans, [2]int{start, start + utf8.RuneCountInString(text[loc[0]:loc[1]])})
	}
	return spans
}

// ExtractImage 取出第一个图片标记，返回去掉标记后的文本和图片地址
func ExtractImage(chunk string) (content, imageURL string) {
	m := imageToken.FindStringSubmatchIndex(chunk)
	if m == nil {
		return chunk, ""
	}
	imageURL = strings.TrimSpace(chunk[m[2]:m[3]])
	content = strings.TrimSpace(chunk[:m[0]] + chunk[m[1]:])
	return content, imageURL
}
