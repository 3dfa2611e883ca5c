package extract

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	apperrors "cloudtts/internal/errors"
)

// extractPDF 按页提取文本，页序保持不变；无法提取文本的页返回空字符串
// 无法解析的文件返回 ExtractionError
func extractPDF(data []byte) (doc Document, err error) {
	// 解析器在遇到损坏的对象时可能 panic
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = apperrors.Newf(apperrors.KindExtraction, "malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, apperrors.Wrap(apperrors.KindExtraction, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 扫描件等没有文本层的页按空页处理
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return Document{Pages: pages, Paged: true}, nil
}
