package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	"github.com/KMohnishM/Cys-FFCS/internal/app/store/scoring"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/livequery"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/timeouts"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the leaderboard page and its live-update stream. The
// stream re-ranks on every change to the users collection, so clients just
// replace the whole table.
type Handler struct {
	Scoring *scoring.Store
	Users   *mongo.Collection
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Scoring: scoring.New(db),
		Users:   db.Collection("users"),
		ErrLog:  errLog,
		Log:     logger,
	}
}

type pageData struct {
	viewdata.BaseVM
	Entries []scoring.Entry
}

// ServePage handles GET /leaderboard.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Scoring.Leaderboard(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load leaderboard", err,
			"Could not load the leaderboard.", "/dashboard")
		return
	}

	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Leaderboard", "/dashboard"),
		Entries: entries,
	}
	templates.Render(w, r, "leaderboard", data)
}

// ServeStream handles GET /leaderboard/stream: server-sent events carrying
// the full ranking, re-sent whenever a user document changes. Delivery is
// at-least-once; clients render whatever arrives last.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := livequery.Subscribe(ctx, h.Users, h.Log)
	defer sub.Close()

	// Initial snapshot so the page fills before the first change.
	if err := h.sendRanking(ctx, w); err != nil {
		h.Log.Warn("leaderboard stream write failed", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-sub.Events:
			if !open {
				return
			}
			if err := h.sendRanking(ctx, w); err != nil {
				h.Log.Warn("leaderboard stream write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) sendRanking(ctx context.Context, w http.ResponseWriter) error {
	qctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	entries, err := h.Scoring.Leaderboard(qctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: ranking\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
