// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the analysis pipeline as an MCP tool over stdio.
package mcp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/guardrails"
)

// ToolName is the name of the analysis tool.
const ToolName = "analyze_blood_report"

const defaultQuery = "Analyze my Blood Test Report"

// Analyzer runs the crew for one report.
type Analyzer interface {
	Kickoff(ctx context.Context, input core.ExecutionInput) (string, error)
}

// Server wraps the mcp-go server with the analysis tool registered.
type Server struct {
	mcpServer *server.MCPServer
	analyzer  Analyzer
	guard     *guardrails.Guardrails
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by analyzer.
func NewServer(name, version string, analyzer Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		analyzer:  analyzer,
		logger:    logger,
	}
	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Analyse a blood test report PDF with a verifier, a doctor, a nutritionist and an exercise specialist."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the PDF report on the local filesystem")),
		mcp.WithString("query", mcp.Description("Question about the report")),
	)
	s.mcpServer.AddTool(tool, s.HandleAnalyze)
	return s
}

// WithGuard screens queries with guard before the crew runs.
func (s *Server) WithGuard(guard *guardrails.Guardrails) *Server {
	s.guard = guard
	return s
}

// HandleAnalyze runs the crew for a tool call. Pipeline failures are returned
// as tool errors so the client sees the message.
func (s *Server) HandleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	path, _ := args["file_path"].(string)
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("file_path is required"), nil
	}
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		query = defaultQuery
	}
	if result := s.guard.CheckInput(ctx, query); result.Blocked {
		s.logger.WarnContext(ctx, "mcp query rejected", slog.String("guardrail", result.GuardrailID))
		return mcp.NewToolResultError("Query rejected: " + result.Reason), nil
	}

	report, err := s.analyzer.Kickoff(ctx, core.ExecutionInput{
		Query:    strings.TrimSpace(query),
		FilePath: path,
	})
	if err != nil {
		typed := errors.As(err)
		s.logger.ErrorContext(ctx, "mcp analysis failed",
			slog.String("path", path),
			slog.String("code", string(typed.Code)),
			slog.Any("error", typed),
		)
		return mcp.NewToolResultError("Error processing blood report: " + typed.Error()), nil
	}
	return mcp.NewToolResultText(report), nil
}

// ServeStdio starts the server on Stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
