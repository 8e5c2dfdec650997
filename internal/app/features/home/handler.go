package home

import (
	"net/http"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the landing page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// ServeRoot handles GET / — the landing page. Signed-in users go straight
// to their dashboard.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if vm := viewdata.NewBaseVM(r, "Welcome", "/"); vm.IsLoggedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
	}

	templates.Render(w, r, "home", data)
}
