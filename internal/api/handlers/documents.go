package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/document"
)

type DocumentHandler struct {
	extractor document.TextExtractor
	counter   Counter
	maxBytes  int64
	logger    *zap.Logger
}

func NewDocumentHandler(extractor document.TextExtractor, counter Counter, maxBytes int64, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{extractor: extractor, counter: counter, maxBytes: maxBytes, logger: logger}
}

type DocumentCountResponse struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	CountResponse
}

// Count extracts the text of an uploaded file and counts word in it.
// Form fields: "file" (pdf, docx or txt) and "word".
func (h *DocumentHandler) Count(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	word := r.FormValue("word")
	if msg := validateWord(word); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	fileType := header.Header.Get("Content-Type")
	if fileType == "" || fileType == "application/octet-stream" {
		fileType = header.Filename
	}

	extracted, err := h.extractor.Extract(r.Context(), file, header.Size, fileType)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.counter.Count(r.Context(), extracted.Content, word)
	if err != nil {
		writeCountError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentCountResponse{
		Filename:      header.Filename,
		Pages:         extracted.Pages,
		CountResponse: CountResponse{Word: word, Result: res},
	})
}
