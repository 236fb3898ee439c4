package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"LogAnalyzer/internal/parser"
)

// handleUploadFile принимает multipart-файл, проверяет расширение и
// размер, сохраняет в хранилище и сразу делает пробный разбор.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	parts := s.current()
	user := requestUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, parts.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(parts.cfg.Upload.MaxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large",
				fmt.Sprintf("limit is %d bytes", parts.cfg.Upload.MaxFileSize))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required", "")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "empty filename", "")
		return
	}
	if !extensionAllowed(header.Filename, parts.cfg.Upload.AllowedExtensions) {
		writeError(w, http.StatusBadRequest, "file type not allowed",
			fmt.Sprintf("allowed: %s", strings.Join(parts.cfg.Upload.AllowedExtensions, ", ")))
		return
	}

	path, err := s.store.Save(file, header.Filename, user.ID)
	if err != nil {
		s.logger.Error("Файл не сохранён", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save file", "")
		return
	}

	records, err := s.files.ParseFile(path, parser.Options{
		MaxLines:   parts.cfg.Parser.MaxLines,
		SampleRate: parts.cfg.Parser.SampleRate,
	})
	if err != nil {
		s.logger.Error("Загруженный файл не разобран", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to parse file", "")
		return
	}

	s.logger.Info("Файл загружен",
		zap.String("filename", header.Filename),
		zap.String("user_id", user.ID),
		zap.Int("records", len(records)))

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "File uploaded successfully",
		"filename":  header.Filename,
		"file_path": path,
		"parse_result": map[string]any{
			"total_entries": len(records),
		},
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	files, err := s.store.List(user.ID)
	if err != nil {
		s.logger.Error("Список файлов не получен", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list files", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	filename := mux.Vars(r)["filename"]

	if err := s.store.Delete(filename, user.ID); err != nil {
		writeError(w, http.StatusNotFound, "file not found", "")
		return
	}
	s.logger.Info("Файл удалён", zap.String("filename", filename), zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, map[string]any{"message": "File deleted successfully"})
}

func extensionAllowed(filename string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
