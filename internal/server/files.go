package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/db"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/files"
)

// fileResp is the JSON shape of a file record.
type fileResp struct {
	FileName   string `json:"file_name"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	UploadDate string `json:"upload_date"`
}

func toFileResp(f *db.File) fileResp {
	return fileResp{
		FileName:   f.FileName,
		ID:         f.ID,
		URL:        f.URL,
		UploadDate: db.DateString(f.UploadDate),
	}
}

// getFileHandler handles GET /v1/file/{id}.
func (s *Server) getFileHandler(w http.ResponseWriter, r *http.Request) {
	f, err := s.cfg.Files.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, files.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "File not found")
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		writeJSON(w, http.StatusOK, toFileResp(f))
	}
}

// deleteFileHandler handles DELETE /v1/file/{id}.
func (s *Server) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	err := s.cfg.Files.Delete(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, files.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "File not found")
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
