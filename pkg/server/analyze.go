// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

type analyzeResponse struct {
	Status        string `json:"status"`
	Query         string `json:"query"`
	Analysis      string `json:"analysis"`
	FileProcessed string `json:"file_processed"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large"):
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Detail: "Uploaded file is too large"})
		case stderrors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusBadRequest, errorResponse{Detail: "file is required"})
		default:
			c.JSON(http.StatusBadRequest, errorResponse{Detail: "Invalid multipart request: " + err.Error()})
		}
		return
	}

	query := c.PostForm("query")
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if result := s.opts.Guard.CheckInput(c.Request.Context(), query); result.Blocked {
		s.logger.WarnContext(c.Request.Context(), "query rejected",
			slog.String("guardrail", result.GuardrailID),
			slog.Float64("confidence", result.Confidence),
		)
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Query rejected: " + result.Reason})
		return
	}

	path := filepath.Join(s.opts.UploadDir, "blood_test_report_"+uuid.NewString()+".pdf")
	defer s.removeUpload(c, path)

	if err := c.SaveUploadedFile(header, path); err != nil {
		s.logger.ErrorContext(c.Request.Context(), "failed to store upload", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Error processing blood report: " + err.Error(),
			Code:   string(errors.CodeInternal),
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Only PDF files are accepted"})
		return
	}

	analysis, err := s.analyzer.Kickoff(c.Request.Context(), core.ExecutionInput{
		Query:    strings.TrimSpace(query),
		FilePath: path,
	})
	if err != nil {
		typed := errors.As(err)
		s.logger.ErrorContext(c.Request.Context(), "analysis failed",
			slog.String("file", header.Filename),
			slog.String("code", string(typed.Code)),
			slog.Any("error", typed),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Error processing blood report: " + typed.Error(),
			Code:   string(typed.Code),
		})
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{
		Status:        "success",
		Query:         query,
		Analysis:      analysis,
		FileProcessed: header.Filename,
	})
}

func (s *Server) removeUpload(c *gin.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.DebugContext(c.Request.Context(), "failed to remove upload",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}
