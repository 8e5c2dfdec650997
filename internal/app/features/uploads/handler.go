package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage is the slice of the storage backend this endpoint needs.
// waffle's storage.Store satisfies it.
type Storage interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	URL(path string) string
}

// Handler accepts JSON data-URL uploads from scripts and richer clients.
// Files land under uploads/<user-id>/ so one member cannot overwrite
// another's files.
type Handler struct {
	Storage Storage
	Log     *zap.Logger
}

func NewHandler(store Storage, logger *zap.Logger) *Handler {
	return &Handler{Storage: store, Log: logger}
}

type uploadRequest struct {
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

type uploadResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// Serve handles /api/uploads.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, uploadResponse{Error: "method not allowed"})
		return
	}
	su, ok := auth.CurrentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, uploadResponse{Error: "sign in required"})
		return
	}

	// The base64 body is ~4/3 the decoded size; leave headroom for JSON.
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxDataURLBytes*3/2+4096)

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "invalid JSON body"})
		return
	}

	contentType, data, err := decodeDataURL(req.DataURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: err.Error()})
		return
	}
	if len(data) > limits.MaxDataURLBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			uploadResponse{Error: "payload exceeds 10 MB"})
		return
	}

	path := fmt.Sprintf("uploads/%s/%s-%s",
		su.ID, uuid.New().String()[:8], sanitizeFilename(req.Filename))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.Storage.Put(ctx, path, bytes.NewReader(data), opts); err != nil {
		h.Log.Error("upload store failed", zap.String("path", path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "could not store the file"})
		return
	}

	h.Log.Info("file uploaded",
		zap.String("user_id", su.ID),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusCreated, uploadResponse{URL: h.Storage.URL(path)})
}

// decodeDataURL parses "data:<mediatype>;base64,<payload>".
func decodeDataURL(dataURL string) (contentType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	rest := dataURL[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("data URL must be base64-encoded")
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload")
	}
	return contentType, data, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	if len(out) > 64 {
		out = out[:64]
	}
	return string(out)
}

func writeJSON(w http.ResponseWriter, status int, body uploadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
