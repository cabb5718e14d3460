package textextract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("unsupported file type")

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindTXT  Kind = "txt"
)

type ExtractedText struct {
	Content string
	Pages   int
	Kind    Kind
}

// KindOf maps a file extension, bare name or MIME type to a Kind.
func KindOf(fileType string) (Kind, error) {
	ft := strings.ToLower(strings.TrimSpace(fileType))
	if i := strings.IndexByte(ft, ';'); i >= 0 {
		ft = strings.TrimSpace(ft[:i])
	}
	if ext := filepath.Ext(ft); ext != "" && !strings.Contains(ft, "/") {
		ft = ext
	}

	switch ft {
	case ".pdf", "pdf", "application/pdf":
		return KindPDF, nil
	case ".docx", "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return KindDOCX, nil
	case ".txt", "txt", "text/plain":
		return KindTXT, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

func Extract(data io.ReaderAt, size int64, fileType string) (*ExtractedText, error) {
	kind, err := KindOf(fileType)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPDF:
		return extractPDF(data, size)
	case KindDOCX:
		return extractDOCX(data, size)
	default:
		return extractTXT(data, size)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".docx", ".txt"}
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read PDF page %d: %w", i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return &ExtractedText{
		Content: buf.String(),
		Pages:   numPages,
		Kind:    KindPDF,
	}, nil
}

func extractDOCX(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()

		text, err := docxText(rc)
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		return &ExtractedText{Content: text, Pages: 1, Kind: KindDOCX}, nil
	}

	return nil, fmt.Errorf("open DOCX: word/document.xml not found")
}

// docxText collects character data from <w:t> runs. Paragraph and break
// elements become whitespace so adjacent words never fuse into one token.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return buf.String(), nil
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab", "br":
				buf.WriteByte(' ')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}
}

func extractTXT(data io.ReaderAt, size int64) (*ExtractedText, error) {
	buf := make([]byte, size)
	n, err := data.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read TXT: %w", err)
	}

	return &ExtractedText{
		Content: string(buf[:n]),
		Pages:   1,
		Kind:    KindTXT,
	}, nil
}
