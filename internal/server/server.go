package server

import (
	"embed"
	"io/fs"
	"net/http"
	"net/http/pprof"

	"github.com/atikulmunna/weft"
	"github.com/atikulmunna/weft/internal/aggregator"
	"github.com/atikulmunna/weft/internal/hub"

	"github.com/gin-gonic/gin"
)

//go:embed all:web
var webFS embed.FS

// Server exposes the live metric table and stream statistics over HTTP.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	snapshot   func() weft.Snapshot
	port       string
}

// New creates a web server for the dashboard. snapshotFn returns the current
// table state from the printer.
func New(h *hub.Hub, agg *aggregator.Aggregator, snapshotFn func() weft.Snapshot, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		snapshot:   snapshotFn,
		port:       port,
	}

	s.setupRoutes()
	return s
}

// serveEmbedded reads a file from the embedded FS and writes it with the
// given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	// Pre-read the file at startup so we don't read on every request.
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	// Extract the embedded web/ content.
	webContent, _ := fs.Sub(webFS, "web")

	// Dashboard.
	s.engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))
	s.engine.GET("/style.css", serveEmbedded(webContent, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(webContent, "app.js", "application/javascript; charset=utf-8"))

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"uptime":        stats.Uptime,
			"files_watched": stats.FilesWatched,
			"rps":           stats.RPS,
			"dropped":       stats.DroppedRecords,
		})
	})

	// Stream statistics.
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	// Current table state.
	s.engine.GET("/api/table", func(c *gin.Context) {
		c.JSON(http.StatusOK, tableJSON(s.snapshot()))
	})

	// WebSocket record stream.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// tableJSON converts a table snapshot into the wire shape the dashboard
// consumes. Cell marks travel as small ints (0 none, 1 best, 2 worse).
func tableJSON(s weft.Snapshot) gin.H {
	rows := make([]gin.H, len(s.Rows))
	for i, r := range s.Rows {
		// []uint8 would JSON-encode as base64, so marks travel as ints.
		marks := make([]int, len(r.Marks))
		for j, m := range r.Marks {
			marks[j] = int(m)
		}
		rows[i] = gin.H{
			"key":    r.Key,
			"cells":  r.Cells,
			"marks":  marks,
			"closed": r.Closed,
		}
	}
	return gin.H{"columns": s.Columns, "rows": rows}
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(":" + s.port)
}
