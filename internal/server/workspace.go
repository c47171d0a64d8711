package server

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// -- Request bodies --

// Optional fields whose zero value differs from their default are pointers;
// nil means "not provided".

type runCommandRequest struct {
	ContainerName string `json:"container_name" binding:"required"`
	Command       string `json:"command" binding:"required"`
	Workdir       string `json:"workdir"`
}

type terminalLogsRequest struct {
	ContainerName string `json:"container_name" binding:"required"`
	NumLines      int    `json:"num_lines"`
}

type readFileRequest struct {
	FilePath           string `json:"file_path" binding:"required"`
	StartLine          int    `json:"start_line"`
	EndLine            int    `json:"end_line"`
	IncludeLineNumbers *bool  `json:"include_line_numbers"`
}

type createOrOverwriteRequest struct {
	FilePath string `json:"file_path" binding:"required"`
	Content  string `json:"content"`
}

type deleteFileRequest struct {
	FilePath string `json:"file_path" binding:"required"`
}

type replaceStringRequest struct {
	FilePath          string `json:"file_path" binding:"required"`
	TargetString      string `json:"target_string" binding:"required"`
	ReplacementString string `json:"replacement_string"`
}

type drySearchRequest struct {
	ExtendedRegexQuery string `json:"extended_regex_query" binding:"required"`
	ContextLines       *int   `json:"context_lines"`
}

type searchRequest struct {
	ExtendedRegexQuery string `json:"extended_regex_query" binding:"required"`
	FilePath           string `json:"file_path" binding:"required"`
	ContextLines       *int   `json:"context_lines"`
	MaxResults         int    `json:"max_results"`
	IncludeLineNumbers *bool  `json:"include_line_numbers"`
}

type updateEnvVariableRequest struct {
	VariableName string `json:"variable_name" binding:"required"`
	Value        string `json:"value"`
}

// -- Handlers --

func (s *Server) handleRunCommand(c *gin.Context) {
	var req runCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.executor.ExecuteFiltered(c.Request.Context(), req.ContainerName, req.Command, req.Workdir)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Command executed successfully"
	if !result.Success {
		message = fmt.Sprintf("Command exited with code %d", result.ExitCode)
	}
	if result.Truncated {
		message += " (output truncated)"
	}
	c.JSON(http.StatusOK, Response{
		Success:  result.Success,
		Message:  message,
		Data:     gin.H{"truncated": result.Truncated},
		Stdout:   &result.Stdout,
		Stderr:   &result.Stderr,
		ExitCode: &result.ExitCode,
	})
}

func (s *Server) handleTerminalLogs(c *gin.Context) {
	var req terminalLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	lines := req.NumLines
	if lines <= 0 {
		lines = s.cfg.Exec.DefaultLogLines
	}
	if lines > s.cfg.Exec.MaxLogLines {
		lines = s.cfg.Exec.MaxLogLines
	}

	logs, err := s.containers.Logs(c.Request.Context(), req.ContainerName, lines)
	if err != nil {
		respondError(c, err)
		return
	}

	pruned := false
	if max := s.cfg.Exec.MaxLogChars; len(logs) > max {
		logs = logs[len(logs)-max:]
		pruned = true
	}

	message := "Container logs retrieved"
	if pruned {
		message = fmt.Sprintf("Container logs retrieved (pruned to last %d chars)", s.cfg.Exec.MaxLogChars)
	}
	respondOK(c, message, gin.H{
		"logs":            logs,
		"pruned":          pruned,
		"character_count": len(logs),
	})
}

func (s *Server) handleReadFile(c *gin.Context) {
	var req readFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	numbered := true
	if req.IncludeLineNumbers != nil {
		numbered = *req.IncludeLineNumbers
	}

	content, err := s.files.ReadRange(c.Request.Context(), req.FilePath, req.StartLine, req.EndLine, numbered)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "File read successfully", gin.H{"file_content": content})
}

func (s *Server) handleCreateOrOverwriteFile(c *gin.Context) {
	var req createOrOverwriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	// Create the parent directory first when the file is nested; the write
	// redirect alone cannot create missing directories.
	if dir := path.Dir(req.FilePath); strings.Contains(dir, "/") {
		exists, err := s.files.DirectoryExists(ctx, dir)
		if err != nil {
			respondError(c, err)
			return
		}
		if !exists {
			if err := s.files.CreateDirectory(ctx, dir); err != nil {
				respondError(c, err)
				return
			}
		}
	}

	if err := s.files.Overwrite(ctx, req.FilePath, req.Content); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "File created or overwritten successfully", gin.H{
		"file_path": req.FilePath,
		"status":    "created/overwritten",
	})
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := s.files.Delete(c.Request.Context(), req.FilePath); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "File deleted successfully", gin.H{
		"file_path": req.FilePath,
		"status":    "deleted",
	})
}

func (s *Server) handleReplaceString(c *gin.Context) {
	var req replaceStringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.files.ReplaceString(c.Request.Context(), req.FilePath, req.TargetString, req.ReplacementString)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "String replaced successfully in file", gin.H{
		"file_path":     result.Path,
		"status":        "string replaced",
		"diff":          result.Diff,
		"added_lines":   result.AddedLines,
		"removed_lines": result.RemovedLines,
	})
}

func (s *Server) handleDrySearch(c *gin.Context) {
	var req drySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	contextLines := -1
	if req.ContextLines != nil {
		contextLines = *req.ContextLines
	}

	matches, err := s.searcher.DrySearch(c.Request.Context(), req.ExtendedRegexQuery, contextLines)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Dry search completed", matches)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	contextLines := -1
	if req.ContextLines != nil {
		contextLines = *req.ContextLines
	}
	numbered := true
	if req.IncludeLineNumbers != nil {
		numbered = *req.IncludeLineNumbers
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.Search.MaxResults
	}

	results, err := s.searcher.Search(c.Request.Context(), req.ExtendedRegexQuery, contextLines, req.FilePath, numbered)
	if err != nil {
		respondError(c, err)
		return
	}

	pruned := false
	if len(results) > maxResults {
		results = results[:maxResults]
		pruned = true
	}

	message := "Search completed"
	if pruned {
		message += " (results pruned)"
	}
	respondOK(c, message, gin.H{
		"results": results,
		"pruned":  pruned,
	})
}

func (s *Server) handleEnvNames(c *gin.Context) {
	names, err := s.env.Names()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fmt.Sprintf("Found %d environment variables", len(names)), gin.H{
		"variable_names": names,
		"count":          len(names),
	})
}

func (s *Server) handleEnvUpdate(c *gin.Context) {
	var req updateEnvVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	status, err := s.env.Set(req.VariableName, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fmt.Sprintf("Environment variable %q %s successfully", req.VariableName, status), gin.H{
		"variable_name": req.VariableName,
		"status":        string(status),
	})
}
