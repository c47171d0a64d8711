package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	report, err := s.checker.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: report.Healthy,
		Message: "Health check completed",
		Data:    report,
	})
}

// handleValidate runs each container's configured validation command and
// aggregates the outcomes. Containers without a command are skipped.
func (s *Server) handleValidate(c *gin.Context) {
	ctx := c.Request.Context()

	type checkResult struct {
		Command string `json:"command"`
		Success bool   `json:"success"`
		Output  string `json:"output"`
	}
	results := make(map[string]checkResult)
	var failures []string

	containers := make([]string, 0, len(s.cfg.Containers.ValidateCommands))
	for container := range s.cfg.Containers.ValidateCommands {
		containers = append(containers, container)
	}
	sort.Strings(containers)

	allPassed := true
	for _, container := range containers {
		command := s.cfg.Containers.ValidateCommands[container]
		result, err := s.executor.Execute(ctx, container, command, "")
		if err != nil {
			results[container] = checkResult{Command: command, Output: err.Error()}
			failures = append(failures, fmt.Sprintf("%s validation failed: %v", container, err))
			allPassed = false
			continue
		}

		output := strings.TrimSpace(result.Stdout + result.Stderr)
		results[container] = checkResult{
			Command: command,
			Success: result.Success,
			Output:  output,
		}
		if !result.Success {
			failures = append(failures, fmt.Sprintf("%s validation failed: %s", container, output))
			allPassed = false
		}
	}

	message := "Validation checks completed - all checks passed"
	if !allPassed {
		message = "Validation checks completed - some checks failed"
	}
	resp := Response{Success: allPassed, Message: message, Data: results}
	if len(failures) > 0 {
		joined := strings.Join(failures, "; ")
		resp.Stderr = &joined
	}
	c.JSON(http.StatusOK, resp)
}

// handleReload restarts the configured containers in order. One container
// failing does not stop the rest.
func (s *Server) handleReload(c *gin.Context) {
	ctx := c.Request.Context()
	timeout := time.Duration(s.cfg.Containers.RestartTimeoutSeconds) * time.Second

	type reloadResult struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	results := make(map[string]reloadResult)
	var failures []string

	allOK := true
	for _, container := range s.cfg.Containers.ReloadTargets {
		s.log.Info().Str("container", container).Msg("restarting container")
		if err := s.containers.Restart(ctx, container, timeout); err != nil {
			s.log.Error().Err(err).Str("container", container).Msg("restart failed")
			msg := fmt.Sprintf("failed to restart %s: %v", container, err)
			results[container] = reloadResult{Message: msg}
			failures = append(failures, msg)
			allOK = false
			continue
		}
		results[container] = reloadResult{
			Success: true,
			Message: fmt.Sprintf("%s container restarted successfully", container),
		}
	}

	message := "Container reload completed - all containers restarted successfully"
	if !allOK {
		message = "Container reload completed - some containers failed to restart"
	}
	resp := Response{Success: allOK, Message: message, Data: results}
	if len(failures) > 0 {
		joined := strings.Join(failures, "; ")
		resp.Stderr = &joined
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFiletree(c *gin.Context) {
	files, failures, err := s.searcher.ListFiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	message := "File tree retrieved from all containers"
	if len(failures) > 0 {
		parts := make([]string, 0, len(failures))
		for container, reason := range failures {
			parts = append(parts, container+": "+reason)
		}
		sort.Strings(parts)
		message = fmt.Sprintf("File tree retrieved (with errors: %s)", strings.Join(parts, "; "))
	}
	respondOK(c, message, files)
}

// Route discovery commands. The backend lists URLs itself; frontend routes
// are derived from the page file layout.
const (
	backendRoutesCommand  = "python manage.py show_urls"
	frontendRoutesCommand = "find app -name 'page.*'"
)

func (s *Server) handleRoutes(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{}
	var failures []string

	backend, err := s.executor.Execute(ctx, "backend", backendRoutesCommand, "")
	switch {
	case err != nil:
		failures = append(failures, "backend: "+err.Error())
	case !backend.Success:
		failures = append(failures, "backend: "+strings.TrimSpace(backend.Stderr))
	default:
		data["backend"] = nonEmptyLines(backend.Stdout)
	}

	frontend, err := s.executor.Execute(ctx, "frontend", frontendRoutesCommand, "")
	switch {
	case err != nil:
		failures = append(failures, "frontend: "+err.Error())
	case !frontend.Success:
		failures = append(failures, "frontend: "+strings.TrimSpace(frontend.Stderr))
	default:
		routes := make([]string, 0)
		for _, path := range nonEmptyLines(frontend.Stdout) {
			routes = append(routes, pageFileToRoute(path))
		}
		data["frontend"] = routes
	}

	message := "Routes retrieved from containers"
	if len(failures) > 0 {
		message = fmt.Sprintf("Routes retrieved (with errors: %s)", strings.Join(failures, "; "))
	}
	c.JSON(http.StatusOK, Response{
		Success: len(data) > 0,
		Message: message,
		Data:    data,
	})
}

func (s *Server) handleDownloadZip(c *gin.Context) {
	filename := s.exporter.Filename(time.Now())
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := s.exporter.WriteZip(c.Writer); err != nil {
		// Headers are already sent; all that remains is logging and cutting
		// the connection short.
		s.log.Error().Err(err).Msg("workspace export failed")
		c.Abort()
	}
}

// pageFileToRoute converts a page file path like "app/users/page.tsx" into
// its route ("/users").
func pageFileToRoute(path string) string {
	route := strings.TrimPrefix(path, "app/")
	for _, suffix := range []string{"/page.tsx", "page.tsx", "/page.jsx", "page.jsx"} {
		route = strings.ReplaceAll(route, suffix, "")
	}
	if route == "" {
		return "/"
	}
	return "/" + route
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
