// Package httpapi exposes an Orchestrator over HTTP: a liveness probe at
// GET / and a batch peptide search at POST /search.
package httpapi

import (
	"net/http"

	"github.com/go-mizu/mizu"
	mizurecover "github.com/go-mizu/mizu/middlewares/recover"

	"github.com/bioutils/peptidesearch/annotation"
	"github.com/bioutils/peptidesearch/orchestrator"
)

// maxSearchBodyBytes caps a /search request body, matching the contract's
// 5 MiB limit.
const maxSearchBodyBytes = 5 << 20

// SearchRequest is the POST /search request body.
type SearchRequest struct {
	Peptides []string `json:"peptides"`
}

// peptideResult is one surviving peptide's result on the wire.
type peptideResult struct {
	Sequence          string               `json:"sequence"`
	LCA               uint32               `json:"lca"`
	Taxa              []uint32             `json:"taxa"`
	UniprotAccessions []string             `json:"uniprot_accessions"`
	FA                annotation.Aggregate `json:"fa"`
	CutoffUsed        bool                 `json:"cutoff_used"`
	ShortQuery        bool                 `json:"short_query,omitempty"`
	OutOfTime         bool                 `json:"out_of_time,omitempty"`
}

// Server wraps an Orchestrator behind an HTTP handler.
type Server struct {
	app  *mizu.App
	orch *orchestrator.Orchestrator
}

// New builds a Server over orch, with panic recovery installed so a bug in
// the search path surfaces as an HTTP 500 instead of taking the process
// down.
func New(orch *orchestrator.Orchestrator) *Server {
	s := &Server{app: mizu.New(), orch: orch}
	s.app.Use(mizurecover.New())
	s.app.Get("/", s.handleLiveness)
	s.app.Post("/search", s.handleSearch)
	return s
}

// Handler returns the server's http.Handler, for tests and for embedding
// behind another mux.
func (s *Server) Handler() http.Handler { return s.app }

// Listen starts the server on addr, blocking until it exits.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) handleLiveness(c *mizu.Ctx) error {
	return c.Text(http.StatusOK, "ok")
}

func (s *Server) handleSearch(c *mizu.Ctx) error {
	var req SearchRequest
	if err := c.BindJSON(&req, maxSearchBodyBytes); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	results, err := s.orch.SearchBatch(c.Context(), req.Peptides)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]peptideResult, len(results))
	for i, r := range results {
		out[i] = peptideResult{
			Sequence:          r.Sequence,
			LCA:               r.LCA,
			Taxa:              r.Taxa,
			UniprotAccessions: r.UniprotAccessions,
			FA:                r.FA,
			CutoffUsed:        r.CutoffUsed,
			ShortQuery:        r.ShortQuery,
			OutOfTime:         r.OutOfTime,
		}
	}
	return c.JSON(http.StatusOK, out)
}
