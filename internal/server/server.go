// Package server exposes lookup tables over HTTP.
package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/duckdb"
	"github.com/inodb/vibe-lookup/internal/liftover"
	"github.com/inodb/vibe-lookup/internal/lookup"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Entry is a served sequence: its lookup table and liftover mapper.
type Entry struct {
	Table  *lookup.Table
	Mapper *liftover.Mapper
}

// Server serves lookup tables. Position queries use the DuckDB store when
// one is given, otherwise the tables held in memory and per-build span indexes.
type Server struct {
	entries map[string]*Entry
	store   *duckdb.Store
	spans   map[string]*lookup.SpanIndex
	cols    map[string]lookup.BuildColumn
	logger  *zap.Logger
}

// New creates a server for the given entries. store may be nil.
func New(entries map[string]*Entry, store *duckdb.Store) *Server {
	tables := make([]*lookup.Table, 0, len(entries))
	for _, e := range entries {
		tables = append(tables, e.Table)
	}
	return &Server{
		entries: entries,
		store:   store,
		spans: map[string]*lookup.SpanIndex{
			"GRCh37": lookup.NewSpanIndex(tables, lookup.GRCh37),
			"GRCh38": lookup.NewSpanIndex(tables, lookup.GRCh38),
		},
		cols: map[string]lookup.BuildColumn{
			"GRCh37": lookup.GRCh37,
			"GRCh38": lookup.GRCh38,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the request logger.
func (s *Server) SetLogger(l *zap.Logger) {
	s.logger = l
}

// PositionResponse is the JSON form of a lookup row.
type PositionResponse struct {
	Name               string `json:"name"`
	StartPosition      int    `json:"start_position"`
	ATGPosition        int    `json:"atg_position"`
	TranscriptPosition string `json:"transcript_position"`
	GRCh37Position     int64  `json:"grch37_position"`
	GRCh38Position     int64  `json:"grch38_position"`
	Allele             string `json:"allele"`
	ExonAnnotation     string `json:"exon_annotation"`
	CDSAnnotation      string `json:"cds_annotation"`
}

func newPositionResponse(name string, r *lookup.Row) PositionResponse {
	return PositionResponse{
		Name:               name,
		StartPosition:      r.StartPosition,
		ATGPosition:        r.ATGPosition,
		TranscriptPosition: r.TranscriptPosition,
		GRCh37Position:     r.BuildAPosition,
		GRCh38Position:     r.BuildBPosition,
		Allele:             r.Allele,
		ExonAnnotation:     r.ExonAnnotation,
		CDSAnnotation:      r.CDSAnnotation,
	}
}

// Handler returns the gin engine with all routes registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.GET("/transcripts", s.listRoute)
	v1.GET("/transcripts/:name/positions/:pos", s.positionRoute)
	v1.GET("/transcripts/:name/liftover", s.liftoverRoute)
	v1.GET("/genomic/:build/:pos", s.genomicRoute)

	return r
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func errorResp(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) listRoute(c *gin.Context) {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"transcripts": names})
}

var (
	errUnknownTranscript = errors.New("unknown transcript")
	errBadPosition       = errors.New("position must be an integer")
	errUnknownBuild      = errors.New("build must be GRCh37 or GRCh38")
	errPositionRange     = errors.New("position out of range")
)

func (s *Server) entry(c *gin.Context) (*Entry, bool) {
	e, ok := s.entries[c.Param("name")]
	if !ok {
		errorResp(c, http.StatusNotFound, errUnknownTranscript)
	}
	return e, ok
}

func (s *Server) positionRoute(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		errorResp(c, http.StatusBadRequest, errBadPosition)
		return
	}

	var row *lookup.Row
	if s.store != nil {
		row, err = s.store.LookupPosition(e.Table.Name, pos)
		if err != nil {
			errorResp(c, http.StatusInternalServerError, err)
			return
		}
	} else if r, ok := e.Table.Row(pos); ok {
		row = r
	}
	if row == nil {
		errorResp(c, http.StatusNotFound, errPositionRange)
		return
	}
	c.JSON(http.StatusOK, newPositionResponse(e.Table.Name, row))
}

func (s *Server) liftoverRoute(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	pos, err := strconv.ParseInt(c.Query("pos"), 10, 64)
	if err != nil {
		errorResp(c, http.StatusBadRequest, errBadPosition)
		return
	}
	offset, err := e.Mapper.Map(pos)
	if err != nil {
		if errors.Is(err, liftover.ErrNotInCDS) {
			errorResp(c, http.StatusUnprocessableEntity, err)
			return
		}
		errorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": e.Table.Name, "position": pos, "offset": offset})
}

func (s *Server) genomicRoute(c *gin.Context) {
	build := c.Param("build")
	pos, err := strconv.ParseInt(c.Param("pos"), 10, 64)
	if err != nil {
		errorResp(c, http.StatusBadRequest, errBadPosition)
		return
	}

	var resp []PositionResponse
	if s.store != nil {
		rows, err := s.store.LookupGenomic(build, pos)
		if err != nil {
			errorResp(c, http.StatusBadRequest, err)
			return
		}
		for i := range rows {
			resp = append(resp, newPositionResponse(rows[i].Name, &rows[i].Row))
		}
	} else {
		idx, ok := s.spans[build]
		if !ok {
			errorResp(c, http.StatusBadRequest, errUnknownBuild)
			return
		}
		col := s.cols[build]
		for _, t := range idx.FindOverlaps(pos) {
			if row, ok := lookup.RowAt(t, col, pos); ok {
				resp = append(resp, newPositionResponse(t.Name, row))
			}
		}
		sort.Slice(resp, func(i, j int) bool { return resp[i].Name < resp[j].Name })
	}

	if resp == nil {
		resp = []PositionResponse{}
	}
	c.JSON(http.StatusOK, gin.H{"positions": resp})
}
