package contributions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	contribstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/contributions"
	projectstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/projects"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/imaging"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Storage is the slice of the storage backend this feature needs.
// waffle's storage.Store satisfies it.
type Storage interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Handler serves the member's contribution list and the submit form.
// Attached images are downscaled server-side before they hit storage.
type Handler struct {
	Contribs *contribstore.Store
	Projects *projectstore.Store
	Storage  Storage
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, store Storage, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Contribs: contribstore.New(db, storeDeleter(store), logger),
		Projects: projectstore.New(db),
		Storage:  store,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// storeDeleter adapts the storage backend to the contribution store's
// deleter, tolerating a nil backend in tests.
func storeDeleter(store Storage) contribstore.ImageDeleter {
	if store == nil {
		return nil
	}
	return deleterFunc{store}
}

type deleterFunc struct{ s Storage }

func (d deleterFunc) Delete(ctx context.Context, path string) error {
	return d.s.Delete(ctx, path)
}

var submitErrors = map[string]string{
	"empty":     "Describe what you did before submitting.",
	"image_big": "The image is too large (5 MB max).",
	"image_bad": "Could not read that image. Use a JPEG or PNG.",
	"internal":  "Something went wrong. Please try again.",
}

type pageData struct {
	viewdata.BaseVM
	Contributions []models.Contribution
	Project       *models.Project
	Error         string
	Submitted     bool
}

// ServeList handles GET /contributions — the member's own history plus the
// submit form.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Contribs.ListByUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list contributions", err,
			"Could not load your contributions.", "/dashboard")
		return
	}

	data := pageData{
		BaseVM:        viewdata.NewBaseVM(r, "Contributions", "/dashboard"),
		Contributions: list,
		Error:         submitErrors[r.URL.Query().Get("error")],
		Submitted:     r.URL.Query().Get("submitted") == "1",
	}
	if p, err := h.Projects.GetByMember(ctx, userID); err == nil {
		data.Project = p
	}

	templates.Render(w, r, "contributions", data)
}

// ServeSubmit handles POST /contributions: multipart form with a text
// description and an optional image.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		http.Redirect(w, r, "/contributions?error=internal", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMultipartFormSize)
	if err := r.ParseMultipartForm(limits.MaxMultipartFormSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse contribution form", err,
			"The submission was too large or malformed.", "/contributions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sub := contribstore.Submission{
		UserID: userID,
		Text:   r.PostFormValue("text"),
	}
	if p, err := h.Projects.GetByMember(ctx, userID); err == nil && p != nil {
		sub.ProjectID = &p.ID
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		result, procErr := imaging.Process(file)
		if procErr != nil {
			if errors.Is(procErr, imaging.ErrTooLarge) {
				http.Redirect(w, r, "/contributions?error=image_big", http.StatusSeeOther)
				return
			}
			h.Log.Info("contribution image rejected", zap.Error(procErr))
			http.Redirect(w, r, "/contributions?error=image_bad", http.StatusSeeOther)
			return
		}

		path := imagePath(header.Filename)
		opts := &storage.PutOptions{ContentType: result.ContentType}
		if err := h.Storage.Put(ctx, path, bytes.NewReader(result.Data), opts); err != nil {
			h.ErrLog.LogServerError(w, r, "store contribution image", err,
				"Could not save the image.", "/contributions")
			return
		}
		sub.ImagePath = path
		sub.ImageURL = h.Storage.URL(path)
	case err == http.ErrMissingFile:
		// Text-only contribution.
	default:
		h.ErrLog.LogBadRequest(w, r, "read contribution image", err,
			"Could not read the uploaded image.", "/contributions")
		return
	}

	_, err = h.Contribs.Submit(ctx, sub)
	switch {
	case err == nil:
		http.Redirect(w, r, "/contributions?submitted=1", http.StatusSeeOther)
	case errors.Is(err, contribstore.ErrEmptyText):
		http.Redirect(w, r, "/contributions?error=empty", http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "submit contribution", err,
			"Could not save your contribution.", "/contributions")
	}
}

// imagePath builds contributions/YYYY/MM/<uuid8>-<name>.jpg. Processing
// always re-encodes to JPEG, so the stored name carries that extension.
func imagePath(original string) string {
	now := time.Now().UTC()
	base := strings.TrimSuffix(sanitizeFilename(original), filepath.Ext(original))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("contributions/%04d/%02d/%s-%s.jpg",
		now.Year(), now.Month(), uuid.New().String()[:8], base)
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
	if len(out) > 64 {
		out = out[:64]
	}
	return string(out)
}
