package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/vbonduro/islandlife/internal/objectstore"
)

const maxAssetSize = 20 * 1024 * 1024 // 20 MB

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType sniffs JPEG, PNG and GIF. It has no WebP
// signature, so isWebP checks the RIFF header itself.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// handleUploadAsset ingests the multipart "image" field and returns a
// reference the client stores on a profile or record.
func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize+1<<20)
	if err := r.ParseMultipartForm(maxAssetSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		s.logger.Error("read upload failed", "error", err)
		return
	}

	if _, ok := allowedImageMIME(data); !ok {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	res, err := s.assets.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "failed to process image")
		s.logger.Warn("ingest failed", "filename", header.Filename, "error", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleGetObject serves an object from the configured remote store. It backs
// the URLs produced by the filesystem object store.
func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	store := s.sync.ObjectStore()
	if store == nil {
		http.NotFound(w, r)
		return
	}

	key := path.Clean(r.PathValue("key"))
	rc, err := store.Get(r.Context(), key)
	if errors.Is(err, objectstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch object")
		s.logger.Error("get object failed", "key", key, "error", err)
		return
	}
	defer closeWithLog(rc, "object reader", s.logger)

	data, err := io.ReadAll(rc)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to read object")
		s.logger.Error("read object failed", "key", key, "error", err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write object failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
