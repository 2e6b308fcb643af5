package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bcall/app"
	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/internal/report"
	"bcall/ports"
)

// maxUploadBytes caps roll-call file uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// handleCreateRun accepts a multipart upload ("file", optional "parties")
// plus form parameters, runs the analysis and returns the full result table.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	dataPath, err := s.saveUpload(r, "file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(dataPath)

	partyPath := ""
	if len(r.MultipartForm.File["parties"]) > 0 {
		partyPath, err = s.saveUpload(r, "parties")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer os.Remove(partyPath)
	}

	cfg, err := parseRunConfig(r, s.defaults)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	layout := ports.LayoutWide
	if r.FormValue("layout") == string(ports.LayoutLong) {
		layout = ports.LayoutLong
	}

	result, err := s.service.Run(r.Context(), app.AnalysisRequest{
		Load: ports.LoadRequest{
			Path:      dataPath,
			Layout:    layout,
			Sheet:     r.FormValue("sheet"),
			PartyPath: partyPath,
		},
		Config:  cfg,
		Persist: r.FormValue("persist") != "false",
	})
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	s.logger.Info("API run %s finished: %d scored", result.Meta.RunID, result.Meta.RetainedCount)
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters := ports.RunFilters{Limit: 50}
	if m := r.URL.Query().Get("metric"); m != "" {
		metric, err := bcall.ParseMetric(m)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filters.Metric = metric
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filters.Limit = n
	}

	runs, err := s.service.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(result))
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*bcall.BCallResult, bool) {
	runID := chi.URLParam(r, "runID")
	result, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		if core.IsNotFoundError(err) {
			s.writeError(w, http.StatusNotFound, "run "+runID+" not found")
		} else {
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return result, true
}

// saveUpload streams one multipart file into the upload directory.
func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", errors.New("missing upload field " + field)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		return "", errors.New("unsupported file type " + ext + ", want .csv or .xlsx")
	}

	dst, err := os.CreateTemp(s.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func parseRunConfig(r *http.Request, defaults bcall.AnalysisConfig) (bcall.AnalysisConfig, error) {
	cfg := defaults
	if m := r.FormValue("metric"); m != "" {
		metric, err := bcall.ParseMetric(m)
		if err != nil {
			return cfg, err
		}
		cfg.Metric = metric
	}
	if p := r.FormValue("pivot"); p != "" {
		cfg.Pivot = core.LegislatorID(p)
		cfg.AutoPivot = false
	}
	if t := r.FormValue("threshold"); t != "" {
		th, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return cfg, errors.New("threshold must be a number")
		}
		cfg.Threshold = th
	}
	if n := r.FormValue("normalize"); n != "" {
		normalize, err := strconv.ParseBool(n)
		if err != nil {
			return cfg, errors.New("normalize must be a boolean")
		}
		cfg.Normalize = normalize
	}
	return cfg, cfg.Validate()
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if core.IsNotFoundError(err) {
		status = http.StatusNotFound
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
