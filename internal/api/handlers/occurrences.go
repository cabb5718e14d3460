package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/occurrence"
)

type Counter interface {
	Count(ctx context.Context, text, word string) (occurrence.Result, error)
}

type OccurrenceHandler struct {
	counter Counter
	logger  *zap.Logger
}

func NewOccurrenceHandler(counter Counter, logger *zap.Logger) *OccurrenceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceHandler{counter: counter, logger: logger}
}

type CountRequest struct {
	Text string `json:"text"`
	Word string `json:"word"`
}

type CountResponse struct {
	Word string `json:"word"`
	occurrence.Result
}

func (h *OccurrenceHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateWord(req.Word); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.counter.Count(r.Context(), req.Text, req.Word)
	if err != nil {
		writeCountError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{Word: req.Word, Result: res})
}

// validateWord returns a client-facing message, or "" if word can match a token.
func validateWord(word string) string {
	if word == "" {
		return "word required"
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return "word must be a single token without whitespace"
	}
	return ""
}

func writeCountError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, occurrence.ErrTextTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logger.Error("count failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "count failed")
	}
}
