// Package server exposes the service over HTTP. Handlers are thin: they
// bind a request, call one service, and translate the outcome into the
// shared response envelope.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/envfile"
	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/fileops"
	"github.com/shipable/workspaced/internal/health"
	"github.com/shipable/workspaced/internal/search"
)

// Version is reported by the root and health endpoints.
const Version = "0.1.0"

// commandExecutor runs shell commands in containers. ExecuteFiltered is for
// externally supplied commands and applies the safety filter first.
type commandExecutor interface {
	Execute(ctx context.Context, container, command, workdir string) (*exec.Result, error)
	ExecuteFiltered(ctx context.Context, container, command, workdir string) (*exec.Result, error)
}

// fileService performs virtual-path file operations.
type fileService interface {
	ReadRange(ctx context.Context, path string, startLine, endLine int, numbered bool) (string, error)
	Overwrite(ctx context.Context, path, content string) error
	Delete(ctx context.Context, path string) error
	CreateDirectory(ctx context.Context, path string) error
	DirectoryExists(ctx context.Context, path string) (bool, error)
	ReplaceString(ctx context.Context, path, oldStr, newStr string) (*fileops.ReplaceResult, error)
}

// searchService runs dry and full searches and lists searchable files.
type searchService interface {
	DrySearch(ctx context.Context, pattern string, contextLines int) (map[string][]search.LineRange, error)
	Search(ctx context.Context, pattern string, contextLines int, path string, numbered bool) ([]string, error)
	ListFiles(ctx context.Context) (map[string][]string, map[string]string, error)
}

// envStore manages the shared .env file.
type envStore interface {
	Names() ([]string, error)
	Set(name, value string) (envfile.UpdateStatus, error)
}

// archiveExporter writes workspace zip archives.
type archiveExporter interface {
	Filename(now time.Time) string
	WriteZip(w io.Writer) error
}

// healthChecker runs the stack health check.
type healthChecker interface {
	Run(ctx context.Context) (*health.Report, error)
}

// containerManager restarts containers and fetches their logs.
type containerManager interface {
	Restart(ctx context.Context, name string, timeout time.Duration) error
	Logs(ctx context.Context, name string, tail int) (string, error)
}

// Server wires the HTTP surface to the underlying services.
type Server struct {
	cfg        *config.Config
	executor   commandExecutor
	files      fileService
	searcher   searchService
	env        envStore
	exporter   archiveExporter
	checker    healthChecker
	containers containerManager
	log        zerolog.Logger
}

// Deps bundles the services the server fronts; all are required.
type Deps struct {
	Executor   commandExecutor
	Files      fileService
	Searcher   searchService
	Env        envStore
	Exporter   archiveExporter
	Checker    healthChecker
	Containers containerManager
}

// New creates a Server.
func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	if cfg == nil {
		panic("config is required")
	}
	for _, required := range []any{
		deps.Executor, deps.Files, deps.Searcher, deps.Env,
		deps.Exporter, deps.Checker, deps.Containers,
	} {
		if required == nil {
			panic("all server dependencies are required")
		}
	}
	return &Server{
		cfg:        cfg,
		executor:   deps.Executor,
		files:      deps.Files,
		searcher:   deps.Searcher,
		env:        deps.Env,
		exporter:   deps.Exporter,
		checker:    deps.Checker,
		containers: deps.Containers,
		log:        log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.POST("/validate", s.handleValidate)
	r.POST("/reload", s.handleReload)
	r.GET("/filetree", s.handleFiletree)
	r.GET("/routes", s.handleRoutes)
	r.GET("/download-zip", s.handleDownloadZip)

	ws := r.Group("/workspace")
	{
		ws.POST("/run-command", s.handleRunCommand)
		ws.POST("/terminal-logs", s.handleTerminalLogs)
		ws.POST("/read", s.handleReadFile)
		ws.POST("/create-or-overwrite-file", s.handleCreateOrOverwriteFile)
		ws.DELETE("/delete-file", s.handleDeleteFile)
		ws.POST("/replace-string-in-file", s.handleReplaceString)
		ws.POST("/dry-search", s.handleDrySearch)
		ws.POST("/search", s.handleSearch)
		ws.GET("/env-variables", s.handleEnvNames)
		ws.POST("/env-variables", s.handleEnvUpdate)
	}

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Workspaced Manager Service",
		"version": Version,
	})
}
