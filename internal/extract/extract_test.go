package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cloudtts/internal/errors"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		fileName string
		want     Format
		wantErr  bool
	}{
		{"notes.txt", FormatText, false},
		{"report.docx", FormatDocx, false},
		{"legacy.doc", FormatDoc, false},
		{"paper.pdf", FormatPDF, false},
		{"archive.tar.pdf", FormatPDF, false},
		{"report.xyz", 0, true},
		{"README", 0, true},
		{"SCAN.PDF", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			got, err := ResolveFormat(tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFileType))
				assert.Equal(t, "Unsupported file type", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractText(t *testing.T) {
	doc, err := extractText([]byte("Hello  world\n\tagain"))
	require.NoError(t, err)
	assert.False(t, doc.Paged)
	assert.Equal(t, []string{"Hello  world\n\tagain"}, doc.Pages)

	_, err = extractText([]byte{0xff, 0xfe, 0x00})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindExtraction, apperrors.KindOf(err))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestExtractDocx(t *testing.T) {
	data := buildDocx(t, "First paragraph.", "Second paragraph.")

	doc, err := extractDocx(data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Contains(t, doc.Pages[0], "First paragraph.")
	assert.Contains(t, doc.Pages[0], "Second paragraph.")
	assert.Less(t, strings.Index(doc.Pages[0], "First"), strings.Index(doc.Pages[0], "Second"))
}

func TestExtractDocxCorrupt(t *testing.T) {
	_, err := extractDocx([]byte("definitely not a zip archive"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindExtraction, apperrors.KindOf(err))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestExtractDoc(t *testing.T) {
	t.Run("OOXML容器", func(t *testing.T) {
		doc, err := extractDoc(buildDocx(t, "Legacy text"))
		require.NoError(t, err)
		assert.Contains(t, doc.Pages[0], "Legacy text")
	})

	t.Run("无法解析", func(t *testing.T) {
		_, err := extractDoc([]byte("\xd0\xcf\x11\xe0 binary word file"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindDocConversion, apperrors.KindOf(err))
		assert.True(t, strings.HasPrefix(err.Error(), "Failed to process .doc: "))
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("空白文本", func(t *testing.T) {
		_, err := extractDoc(buildDocx(t, "   "))
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDocBlank))
		assert.Equal(t, "Cannot extract text from this .doc file. Please convert it to .docx.", err.Error())
	})
}

func TestExtractPDF(t *testing.T) {
	data := buildPDF(t, "Hello page one", "", "Goodbye page three")

	doc, err := extractPDF(data)
	require.NoError(t, err)
	assert.True(t, doc.Paged)
	require.Len(t, doc.Pages, 3)
	assert.Contains(t, doc.Pages[0], "Hello page one")
	assert.Empty(t, strings.TrimSpace(doc.Pages[1]))
	assert.Contains(t, doc.Pages[2], "Goodbye page three")
}

func TestExtractPDFInvalid(t *testing.T) {
	inputs := map[string][]byte{
		"非PDF内容": []byte("not a pdf"),
		"截断的PDF":  buildPDF(t, "Hello page one")[:60],
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := extractPDF(data)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindExtraction, apperrors.KindOf(err))
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestRegistryExtract(t *testing.T) {
	registry := NewRegistry()

	doc, format, err := registry.Extract("a.txt", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)
	assert.Equal(t, "plain", doc.Pages[0])

	_, _, err = registry.Extract("a.rtf", []byte("plain"))
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFileType))

	registry.Register(FormatPDF, ExtractorFunc(func(data []byte) (Document, error) {
		return Document{Pages: []string{"p1", "p2"}, Paged: true}, nil
	}))
	doc, format, err = registry.Extract("b.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
	assert.Equal(t, []string{"p1", "p2"}, doc.Pages)
}

// buildDocx 生成只包含正文段落的最小 docx
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, p)
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF 生成每页一行文本的最小 PDF，空字符串对应没有文本的页
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	// 对象编号: 1 Catalog, 2 Pages, 3 Font, 之后每页占用 Page 与 Contents 两个对象
	var objects []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
