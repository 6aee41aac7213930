package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"p9e.in/workorders/pkg/pdfexport"
	"p9e.in/workorders/pkg/storage"
)

// imageTypes are the upload formats the PDF renderer can embed.
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

var (
	// errInvalidImage marks image problems that are the caller's fault.
	errInvalidImage     = errors.New("invalid image")
	errUnsupportedImage = fmt.Errorf("%w: unsupported type, use PNG, JPEG or WebP", errInvalidImage)
)

func sniffImage(b []byte) (contentType, ext string, err error) {
	ct := http.DetectContentType(b)
	ext, ok := imageTypes[ct]
	if !ok {
		return "", "", errUnsupportedImage
	}
	return ct, ext, nil
}

// persistImage moves an inline data URL into blob storage and returns the
// stored reference. References that are already URLs are returned as is, as
// are data URLs when no store is configured.
func (h *Handler) persistImage(ctx context.Context, prefix, ref string) (string, error) {
	if !strings.HasPrefix(ref, "data:") || h.store == nil {
		return ref, nil
	}
	raw, err := pdfexport.DecodeDataURL(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	if int64(len(raw)) > h.maxUpload {
		return "", fmt.Errorf("%w: larger than %d bytes", errInvalidImage, h.maxUpload)
	}
	ct, ext, err := sniffImage(raw)
	if err != nil {
		return "", err
	}
	key := storage.NewKey(prefix, "signature"+ext, h.now())
	url, err := h.store.Put(ctx, key, bytes.NewReader(raw), ct)
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", key, err)
	}
	return url, nil
}

// imageFailed answers a persistImage error: 400 for a bad image, 500 for
// anything else.
func (h *Handler) imageFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errInvalidImage) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.fail(w, r, err)
}

// UploadFile stores a multipart "file" field and returns its URL.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field: "+err.Error())
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if int64(len(raw)) > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	ct, ext, err := sniffImage(raw)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	// the extension follows the sniffed type, not the client's filename
	key := storage.NewKey("files/"+session(r).EmployeeID.String(), "file"+ext, h.now())
	url, err := h.store.Put(r.Context(), key, bytes.NewReader(raw), ct)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "file uploaded", "key", key, "bytes", len(raw))
	writeJSON(w, http.StatusCreated, map[string]string{
		"url":      url,
		"filename": header.Filename,
	})
}
