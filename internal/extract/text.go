package extract

import (
	"unicode/utf8"

	apperrors "cloudtts/internal/errors"
)

// extractText 把 .txt 内容按 UTF-8 解码
func extractText(data []byte) (Document, error) {
	if !utf8.Valid(data) {
		return Document{}, apperrors.New(apperrors.KindExtraction, "'utf-8' codec can't decode the uploaded file")
	}
	return PlainText(string(data)), nil
}
