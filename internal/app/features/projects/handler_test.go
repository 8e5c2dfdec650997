package projects_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	"github.com/KMohnishM/Cys-FFCS/internal/app/features/projects"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/indexes"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*projects.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	logger := zap.NewNop()
	return projects.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func asUser(r *http.Request, u models.User) *http.Request {
	return auth.WithUser(r, &auth.SessionUser{
		ID:   u.ID.Hex(),
		Name: u.FullName,
		Role: u.Role,
	})
}

func postAction(h http.HandlerFunc, u models.User, path, projectID string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req = asUser(req, u)
	req = testutil.WithChiURLParam(req, "id", projectID)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestServeJoin_AddsMember(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Asha", "asha@vitstudent.ac.in")
	p := fx.CreateProject(ctx, "Sensor Grid", "technical")

	rec := postAction(h.ServeJoin, u, "/projects/"+p.ID.Hex()+"/join", p.ID.Hex(), nil)

	if got := rec.Header().Get("Location"); got != "/projects/"+p.ID.Hex() {
		t.Fatalf("Location = %q", got)
	}

	var saved models.Project
	if err := fx.DB().Collection("projects").
		FindOne(ctx, bson.M{"_id": p.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if !saved.HasMember(u.ID) {
		t.Fatal("user not added to project members")
	}
}

func TestServeJoin_FullTeam(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Ravi", "ravi@vitstudent.ac.in")
	full := []primitive.ObjectID{
		primitive.NewObjectID(), primitive.NewObjectID(),
		primitive.NewObjectID(), primitive.NewObjectID(),
	}
	p := fx.CreateProject(ctx, "Packed", "design", full...)

	rec := postAction(h.ServeJoin, u, "/projects/"+p.ID.Hex()+"/join", p.ID.Hex(), nil)

	want := "/projects/" + p.ID.Hex() + "?error=project_full"
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestServeRequest_DuplicateRejected(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Meera", "meera@vitstudent.ac.in")
	p := fx.CreateProject(ctx, "Quiz Night", "events")

	first := postAction(h.ServeRequest, u, "/projects/"+p.ID.Hex()+"/request", p.ID.Hex(), nil)
	if got := first.Header().Get("Location"); got != "/projects/"+p.ID.Hex() {
		t.Fatalf("first request redirected to %q", got)
	}

	second := postAction(h.ServeRequest, u, "/projects/"+p.ID.Hex()+"/request", p.ID.Hex(), nil)
	want := "/projects/" + p.ID.Hex() + "?error=already"
	if got := second.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestServeWithdraw_NoPendingRequest(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Kiran", "kiran@vitstudent.ac.in")
	p := fx.CreateProject(ctx, "Newsletter", "content")

	rec := postAction(h.ServeWithdraw, u, "/projects/"+p.ID.Hex()+"/withdraw", p.ID.Hex(), nil)

	want := "/projects/" + p.ID.Hex() + "?error=no_request"
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestServeAddReview_NonMemberRejected(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Dev", "dev@vitstudent.ac.in")
	p := fx.CreateProject(ctx, "Mural", "design")

	form := url.Values{"comment": {"looks great"}}
	rec := postAction(h.ServeAddReview, u, "/projects/"+p.ID.Hex()+"/reviews", p.ID.Hex(), form)

	want := "/projects/" + p.ID.Hex() + "?error=not_member"
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestServeAddReview_MemberPosts(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Asha", "asha2@vitstudent.ac.in")
	p := fx.CreateProject(ctx, "Mural", "design", u.ID)

	form := url.Values{"comment": {"shipped the first draft"}}
	rec := postAction(h.ServeAddReview, u, "/projects/"+p.ID.Hex()+"/reviews", p.ID.Hex(), form)

	if got := rec.Header().Get("Location"); got != "/projects/"+p.ID.Hex() {
		t.Fatalf("Location = %q", got)
	}

	n, err := fx.DB().Collection("reviews").CountDocuments(ctx, bson.M{"project_id": p.ID})
	if err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if n != 1 {
		t.Fatalf("reviews = %d, want 1", n)
	}
}

func TestServeDetail_UnknownProject(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Lost", "lost@vitstudent.ac.in")
	missing := primitive.NewObjectID()

	req := httptest.NewRequest(http.MethodGet, "/projects/"+missing.Hex(), nil)
	req = asUser(req, u)
	req = testutil.WithChiURLParam(req, "id", missing.Hex())
	rec := httptest.NewRecorder()
	h.ServeDetail(rec, req)

	if got := rec.Header().Get("Location"); got != "/projects?error=not_found" {
		t.Fatalf("Location = %q, want not_found", got)
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if got := rec.Header().Get("Location"); got != "/login" {
		t.Fatalf("Location = %q, want /login", got)
	}
}
