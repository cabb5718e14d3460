package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nikhilbhutani/wordcount/internal/graph"
)

type GraphHandler struct{}

func NewGraphHandler() *GraphHandler {
	return &GraphHandler{}
}

type BFSRequest struct {
	Edges  [][2]int `json:"edges"`
	Source int      `json:"source"`
	Target *int     `json:"target,omitempty"`
}

type BFSResponse struct {
	*graph.Traversal
	Path []int `json:"path,omitempty"`
}

func (h *GraphHandler) BFS(w http.ResponseWriter, r *http.Request) {
	var req BFSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g := graph.New()
	for _, e := range req.Edges {
		g.AddEdge(e[0], e[1])
	}

	t, err := g.BFS(req.Source)
	if errors.Is(err, graph.ErrUnknownVertex) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := BFSResponse{Traversal: t}
	if req.Target != nil {
		resp.Path = t.Path(*req.Target)
	}
	writeJSON(w, http.StatusOK, resp)
}
