package tts

import (
	"strings"
	"unicode/utf8"

	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/extract"
)

// MaxChunkLength 是单次合成调用允许的最大字符数
const MaxChunkLength = 4900

// SegmentationStrategy 定义文本分段策略接口
type SegmentationStrategy interface {
	Segment(text string, maxLen int) []string
}

// WordWrapSegmenter 按空白贪心折行的分段器
// 只在空白处断开，片段内部的空白原样保留，片段首尾的空白被丢弃
type WordWrapSegmenter struct{}

// NewWordWrapSegmenter 创建折行分段器
func NewWordWrapSegmenter() *WordWrapSegmenter {
	return &WordWrapSegmenter{}
}

// Segment 把文本折成不超过 maxLen 个字符的片段
func (s *WordWrapSegmenter) Segment(text string, maxLen int) []string {
	if text == "" || maxLen <= 0 {
		return []string{}
	}

	var segments []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		line := strings.TrimRightFunc(current.String(), isWrapSpace)
		if line != "" {
			segments = append(segments, line)
		}
		current.Reset()
		currentLen = 0
	}

	for _, tok := range tokenize(text) {
		tokLen := utf8.RuneCountInString(tok.text)

		if tok.space {
			// 非首行行首的空白直接丢弃
			if currentLen == 0 && len(segments) > 0 {
				continue
			}
			if currentLen+tokLen > maxLen {
				// 放不下的空白只会成为行尾或下一行行首，两者都会被丢弃
				flush()
				continue
			}
			current.WriteString(tok.text)
			currentLen += tokLen
			continue
		}

		if tokLen > maxLen {
			// 超长单词按字符切开，保证每个片段都不超过上限
			if currentLen > 0 {
				flush()
			}
			pieces := splitLongWord(tok.text, maxLen)
			for _, piece := range pieces[:len(pieces)-1] {
				segments = append(segments, piece)
			}
			last := pieces[len(pieces)-1]
			current.WriteString(last)
			currentLen = utf8.RuneCountInString(last)
			continue
		}

		if currentLen+tokLen > maxLen {
			flush()
		}
		current.WriteString(tok.text)
		currentLen += tokLen
	}
	flush()

	if segments == nil {
		return []string{}
	}
	return segments
}

// isWrapSpace 只把 ASCII 空白当作断行位置，不间断空格等属于单词的一部分
func isWrapSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

type token struct {
	text  string
	space bool
}

// tokenize 把文本切成交替的空白段与非空白段
func tokenize(text string) []token {
	var tokens []token
	start := 0
	inSpace := false
	for i, r := range text {
		space := isWrapSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			tokens = append(tokens, token{text: text[start:i], space: inSpace})
			start = i
			inSpace = space
		}
	}
	if start < len(text) {
		tokens = append(tokens, token{text: text[start:], space: inSpace})
	}
	return tokens
}

// splitLongWord 对超长单词进行字符级切割（保底策略）
func splitLongWord(word string, maxLen int) []string {
	var segments []string
	runes := []rune(word)

	for i := 0; i < len(runes); i += maxLen {
		end := i + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[i:end]))
	}

	return segments
}

// ChunkDocument 把提取出的文档切成有序的合成片段
// 分页文档逐页去除首尾空白后单独折行，空白页不产生片段
func ChunkDocument(doc extract.Document, segmenter SegmentationStrategy, maxLen int) ([]string, error) {
	var chunks []string

	if doc.Paged {
		for _, page := range doc.Pages {
			page = strings.TrimSpace(page)
			if page == "" {
				continue
			}
			chunks = append(chunks, segmenter.Segment(page, maxLen)...)
		}
		if len(chunks) == 0 {
			return nil, apperrors.ErrNoExtractableText
		}
	} else {
		chunks = segmenter.Segment(strings.Join(doc.Pages, "\n"), maxLen)
	}

	if allBlank(chunks) {
		return nil, apperrors.ErrEmptySynthesisInput
	}
	return chunks, nil
}

func allBlank(chunks []string) bool {
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
