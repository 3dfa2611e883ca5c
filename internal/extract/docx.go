package extract

import (
	"bytes"
	"strings"

	"code.sajari.com/docconv"

	apperrors "cloudtts/internal/errors"
)

// docxText 提取 OOXML 文档的段落文本，段落之间以换行分隔
func docxText(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(text, "\n"), nil
}

func extractDocx(data []byte) (Document, error) {
	text, err := docxText(data)
	if err != nil {
		return Document{}, apperrors.Wrap(apperrors.KindExtraction, err)
	}
	return PlainText(text), nil
}

// extractDoc 处理 .doc：按 OOXML 容器读取原始文本，无法读取或为空时提示转换为 .docx
func extractDoc(data []byte) (Document, error) {
	text, err := docxText(data)
	if err != nil {
		return Document{}, &apperrors.Error{
			Kind:    apperrors.KindDocConversion,
			Message: "Failed to process .doc: " + err.Error(),
			Err:     err,
		}
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, apperrors.ErrDocBlank
	}
	return PlainText(text), nil
}
