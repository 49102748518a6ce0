package server

import (
	"bufio"
	"errors"
	"io"
	"net/http"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/files"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "profilePic"

// uploadHandler handles POST /v1/file. The file part is streamed straight
// into the object store; nothing is buffered on disk.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	up, err := nextFilePart(r)
	if err != nil {
		s.log.WarnContext(r.Context(), "bad multipart body",
			"rid", RequestIDFromContext(r.Context()),
			"error", err.Error(),
		)
		writeMessage(w, http.StatusBadRequest, "Bad Request")
		return
	}

	rec, err := s.cfg.Files.Upload(r.Context(), up)
	switch {
	case errors.Is(err, files.ErrMissingFile):
		writeMessage(w, http.StatusBadRequest, "No file provided")
	case err != nil:
		writeMessage(w, http.StatusBadRequest, "Bad Request")
	default:
		writeJSON(w, http.StatusCreated, toFileResp(rec))
	}
}

// nextFilePart advances to the upload field. A request that is not
// multipart, or has no such field, yields an empty Upload.
func nextFilePart(r *http.Request) (files.Upload, error) {
	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return files.Upload{}, nil
	}
	if err != nil {
		return files.Upload{}, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return files.Upload{}, nil
		}
		if err != nil {
			return files.Upload{}, err
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			continue
		}

		body := bufio.NewReaderSize(part, sniffLen)
		return files.Upload{
			Name:        part.FileName(),
			ContentType: contentTypeOf(part.Header.Get("Content-Type"), body),
			Size:        -1,
			Body:        body,
		}, nil
	}
}
