package extract

import (
	"strings"

	apperrors "cloudtts/internal/errors"
)

// Format 表示支持的上传文件格式
type Format int

const (
	FormatText Format = iota + 1
	FormatDocx
	FormatDoc
	FormatPDF
)

// 后缀按长度从长到短排列，保证 .docx 先于 .doc 匹配
var suffixes = []struct {
	suffix string
	format Format
}{
	{".docx", FormatDocx},
	{".txt", FormatText},
	{".doc", FormatDoc},
	{".pdf", FormatPDF},
}

// ResolveFormat 根据文件名后缀确定格式，不支持的后缀返回 UnsupportedFileType
func ResolveFormat(fileName string) (Format, error) {
	for _, s := range suffixes {
		if strings.HasSuffix(fileName, s.suffix) {
			return s.format, nil
		}
	}
	return 0, apperrors.ErrUnsupportedFileType
}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatDocx:
		return "docx"
	case FormatDoc:
		return "doc"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Document 是提取结果；Paged 为 true 时每页单独分段
type Document struct {
	Pages []string
	Paged bool
}

// PlainText 创建一个不分页的文档
func PlainText(text string) Document {
	return Document{Pages: []string{text}}
}

// Extractor 从原始字节中提取文本
type Extractor interface {
	Extract(data []byte) (Document, error)
}

// ExtractorFunc 让普通函数满足 Extractor 接口
type ExtractorFunc func(data []byte) (Document, error)

func (f ExtractorFunc) Extract(data []byte) (Document, error) {
	return f(data)
}

// Registry 把每种格式绑定到一个提取器
type Registry struct {
	extractors map[Format]Extractor
}

// NewRegistry 创建包含所有内置提取器的注册表
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[Format]Extractor{
			FormatText: ExtractorFunc(extractText),
			FormatDocx: ExtractorFunc(extractDocx),
			FormatDoc:  ExtractorFunc(extractDoc),
			FormatPDF:  ExtractorFunc(extractPDF),
		},
	}
}

// Register 替换某种格式的提取器
func (r *Registry) Register(format Format, extractor Extractor) {
	r.extractors[format] = extractor
}

// Extract 按文件名选择提取器并提取文本
func (r *Registry) Extract(fileName string, data []byte) (Document, Format, error) {
	format, err := ResolveFormat(fileName)
	if err != nil {
		return Document{}, 0, err
	}
	extractor, ok := r.extractors[format]
	if !ok {
		return Document{}, format, apperrors.ErrUnsupportedFileType
	}
	doc, err := extractor.Extract(data)
	if err != nil {
		return Document{}, format, err
	}
	return doc, format, nil
}
