package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"LogAnalyzer/internal/models"
	"LogAnalyzer/internal/parser"
	"LogAnalyzer/internal/report"
)

type analyzeRequest struct {
	FilePath string `json:"file_path"`
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return req, false
	}
	if req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "file_path required", "")
		return req, false
	}
	return req, true
}

// handleAnalyze — полный анализ: разбор, детектор аномалий, агрегаты
// и необязательная текстовая сводка. Лимит строк здесь выше обычного,
// сэмплирование отключено: анализ должен видеть файл максимально полно.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	parts := s.current()

	records, err := s.files.ParseFile(req.FilePath, parser.Options{
		MaxLines:   2 * parts.cfg.Parser.MaxLines,
		SampleRate: 1.0,
	})
	if err != nil {
		s.logger.Error("Анализ не выполнен", zap.String("path", req.FilePath), zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to parse file", err.Error())
		return
	}

	anomalies := parts.detector.Detect(records)

	result := models.AnalysisResult{
		TotalEntries: len(records),
		Anomalies:    anomalies,
		Statistics:   report.Statistics(records),
		Timeline:     report.Timeline(records),
	}
	if parts.ai.Enabled() {
		result.AISummary = parts.ai.GenerateSummary(r.Context(), records, anomalies)
	}

	s.logger.Info("Анализ завершён",
		zap.String("path", req.FilePath),
		zap.Int("records", len(records)),
		zap.Int("anomalies", len(anomalies)))
	writeJSON(w, http.StatusOK, result)
}

// handleAnomalies возвращает только аномалии, сгруппированные по типу.
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	parts := s.current()

	records, err := s.files.ParseFile(req.FilePath, parser.Options{
		MaxLines:   parts.cfg.Parser.MaxLines,
		SampleRate: parts.cfg.Parser.SampleRate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse file", err.Error())
		return
	}

	anomalies := parts.detector.Detect(records)
	grouped := make(map[string][]models.Anomaly)
	for _, a := range anomalies {
		grouped[a.Type] = append(grouped[a.Type], a)
	}
	types := make([]string, 0, len(grouped))
	for t := range grouped {
		types = append(types, t)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"anomalies":         anomalies,
		"grouped_anomalies": grouped,
		"summary": map[string]any{
			"total_anomalies": len(anomalies),
			"types":           types,
		},
	})
}

// handleTimeline возвращает почасовую хронологию без детектора.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	parts := s.current()

	records, err := s.files.ParseFile(req.FilePath, parser.Options{
		MaxLines:   parts.cfg.Parser.MaxLines,
		SampleRate: parts.cfg.Parser.SampleRate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse file", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timeline":      report.Timeline(records),
		"total_entries": len(records),
	})
}
