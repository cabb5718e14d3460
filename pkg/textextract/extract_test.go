package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"pdf", KindPDF},
		{".PDF", KindPDF},
		{"application/pdf", KindPDF},
		{"report.pdf", KindPDF},
		{"notes.txt", KindTXT},
		{"text/plain; charset=utf-8", KindTXT},
		{"letter.docx", KindDOCX},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := KindOf(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := KindOf("image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractTXT(t *testing.T) {
	data := []byte("e sono nato a Napoli\n")
	got, err := Extract(bytes.NewReader(data), int64(len(data)), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "e sono nato a Napoli\n", got.Content)
	assert.Equal(t, KindTXT, got.Kind)
}

func TestExtractDOCX(t *testing.T) {
	const body = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>e sono</w:t></w:r><w:r><w:tab/><w:t>nato</w:t></w:r></w:p>
<w:p><w:r><w:t>a Napoli</w:t></w:r></w:p>
</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()), ".docx")
	require.NoError(t, err)
	assert.Equal(t, "e sono nato\na Napoli\n", got.Content)
	assert.Equal(t, KindDOCX, got.Kind)
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "docx")
	assert.Error(t, err)
}

func TestExtractInvalidPDF(t *testing.T) {
	data := []byte("not a pdf")
	_, err := Extract(bytes.NewReader(data), int64(len(data)), "pdf")
	assert.Error(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract(bytes.NewReader(nil), 0, ".png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
