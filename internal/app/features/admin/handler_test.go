package admin_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/KMohnishM/Cys-FFCS/internal/app/features/admin"
	uierrors "github.com/KMohnishM/Cys-FFCS/internal/app/features/errors"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/auth"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/indexes"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*admin.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	logger := zap.NewNop()
	return admin.NewHandler(db, nil, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func postForm(h http.HandlerFunc, u models.User, path, paramID string, form url.Values) *httptest.ResponseRecorder {
	body := ""
	if form != nil {
		body = form.Encode()
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req = auth.WithUser(req, &auth.SessionUser{
		ID:   u.ID.Hex(),
		Name: u.FullName,
		Role: u.Role,
	})
	if paramID != "" {
		req = testutil.WithChiURLParam(req, "id", paramID)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestServeApprove_CreditsPoints(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Asha", "asha@vitstudent.ac.in")
	c := fx.CreatePendingContribution(ctx, member.ID, "hosted the meetup")

	rec := postForm(h.ServeApprove, adm,
		"/admin/contributions/"+c.ID.Hex()+"/approve", c.ID.Hex(),
		url.Values{"points": {"15"}})

	if got := rec.Header().Get("Location"); got != "/admin?ok=approved" {
		t.Fatalf("Location = %q", got)
	}

	var saved models.User
	if err := fx.DB().Collection("users").
		FindOne(ctx, bson.M{"_id": member.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if saved.TotalPoints != 15 {
		t.Fatalf("total_points = %d, want 15", saved.TotalPoints)
	}
}

func TestServeApprove_ZeroPoints(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMemberWithPoints(ctx, "Divya", "divya@vitstudent.ac.in", 20)
	c := fx.CreatePendingContribution(ctx, member.ID, "attended the cleanup drive")

	rec := postForm(h.ServeApprove, adm,
		"/admin/contributions/"+c.ID.Hex()+"/approve", c.ID.Hex(),
		url.Values{"points": {"0"}})

	if got := rec.Header().Get("Location"); got != "/admin?ok=approved" {
		t.Fatalf("Location = %q, want approved", got)
	}

	var saved models.Contribution
	if err := fx.DB().Collection("contributions").
		FindOne(ctx, bson.M{"_id": c.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload contribution: %v", err)
	}
	if saved.Status != models.ContributionVerified {
		t.Fatalf("status = %q, want verified", saved.Status)
	}
	if saved.PointsAwarded != 0 {
		t.Fatalf("points_awarded = %d, want 0", saved.PointsAwarded)
	}

	var u models.User
	if err := fx.DB().Collection("users").
		FindOne(ctx, bson.M{"_id": member.ID}).Decode(&u); err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if u.TotalPoints != 20 {
		t.Fatalf("total_points = %d, want 20 (unchanged)", u.TotalPoints)
	}
}

func TestServeApprove_NegativePoints(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Nisha", "nisha@vitstudent.ac.in")
	c := fx.CreatePendingContribution(ctx, member.ID, "questionable entry")

	rec := postForm(h.ServeApprove, adm,
		"/admin/contributions/"+c.ID.Hex()+"/approve", c.ID.Hex(),
		url.Values{"points": {"-5"}})

	if got := rec.Header().Get("Location"); got != "/admin?error=bad_points" {
		t.Fatalf("Location = %q, want bad_points", got)
	}
}

func TestServeApprove_SecondReviewRejected(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Ravi", "ravi@vitstudent.ac.in")
	c := fx.CreatePendingContribution(ctx, member.ID, "designed the poster")

	path := "/admin/contributions/" + c.ID.Hex() + "/approve"
	postForm(h.ServeApprove, adm, path, c.ID.Hex(), url.Values{"points": {"10"}})
	rec := postForm(h.ServeApprove, adm, path, c.ID.Hex(), url.Values{"points": {"10"}})

	if got := rec.Header().Get("Location"); got != "/admin?error=processed" {
		t.Fatalf("Location = %q, want processed error", got)
	}
}

func TestServeApprove_NonNumericPoints(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Meera", "meera@vitstudent.ac.in")
	c := fx.CreatePendingContribution(ctx, member.ID, "swept the lab")

	rec := postForm(h.ServeApprove, adm,
		"/admin/contributions/"+c.ID.Hex()+"/approve", c.ID.Hex(),
		url.Values{"points": {"lots"}})

	if got := rec.Header().Get("Location"); got != "/admin?error=bad_points" {
		t.Fatalf("Location = %q, want bad_points", got)
	}
}

func TestServeReject_MarksRejected(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Kiran", "kiran@vitstudent.ac.in")
	c := fx.CreatePendingContribution(ctx, member.ID, "unclear work")

	rec := postForm(h.ServeReject, adm,
		"/admin/contributions/"+c.ID.Hex()+"/reject", c.ID.Hex(), nil)

	if got := rec.Header().Get("Location"); got != "/admin?ok=rejected" {
		t.Fatalf("Location = %q", got)
	}

	var saved models.Contribution
	if err := fx.DB().Collection("contributions").
		FindOne(ctx, bson.M{"_id": c.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload contribution: %v", err)
	}
	if saved.Status != models.ContributionRejected {
		t.Fatalf("status = %q, want rejected", saved.Status)
	}
}

func TestServeReassign_MovesSeats(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Dev", "dev@vitstudent.ac.in")
	fx.CreateDepartment(ctx, "technical", "Technical", 30, 0)
	fx.CreateDepartment(ctx, "design", "Design", 20, 0)

	rec := postForm(h.ServeReassign, adm,
		"/admin/users/"+member.ID.Hex()+"/departments", member.ID.Hex(),
		url.Values{"departments": {"technical", "design"}})

	if got := rec.Header().Get("Location"); got != "/admin?ok=reassigned" {
		t.Fatalf("Location = %q", got)
	}

	var dept models.Department
	if err := fx.DB().Collection("departments").
		FindOne(ctx, bson.M{"_id": "technical"}).Decode(&dept); err != nil {
		t.Fatalf("reload department: %v", err)
	}
	if dept.FilledCount != 1 {
		t.Fatalf("filled_count = %d, want 1", dept.FilledCount)
	}
}

func TestServeReset_ClearsSelection(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	member := fx.CreateMember(ctx, "Lena", "lena@vitstudent.ac.in")
	fx.CreateDepartment(ctx, "events", "Events", 25, 0)
	fx.CreateDepartment(ctx, "outreach", "Outreach", 25, 0)

	postForm(h.ServeReassign, adm,
		"/admin/users/"+member.ID.Hex()+"/departments", member.ID.Hex(),
		url.Values{"departments": {"events", "outreach"}})
	rec := postForm(h.ServeReset, adm,
		"/admin/users/"+member.ID.Hex()+"/reset", member.ID.Hex(), nil)

	if got := rec.Header().Get("Location"); got != "/admin?ok=reset" {
		t.Fatalf("Location = %q", got)
	}

	var saved models.User
	if err := fx.DB().Collection("users").
		FindOne(ctx, bson.M{"_id": member.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if len(saved.Departments) != 0 {
		t.Fatalf("departments = %v, want empty", saved.Departments)
	}

	var dept models.Department
	if err := fx.DB().Collection("departments").
		FindOne(ctx, bson.M{"_id": "events"}).Decode(&dept); err != nil {
		t.Fatalf("reload department: %v", err)
	}
	if dept.FilledCount != 0 {
		t.Fatalf("filled_count = %d, want 0 after reset", dept.FilledCount)
	}
}

func TestServeSetRole_Promotes(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	super := fx.CreateUser(ctx, "Root", "root@club.example", models.RoleSuperAdmin)
	member := fx.CreateMember(ctx, "Asha", "asha2@vitstudent.ac.in")

	rec := postForm(h.ServeSetRole, super,
		"/admin/users/"+member.ID.Hex()+"/role", member.ID.Hex(),
		url.Values{"role": {"admin"}})

	if got := rec.Header().Get("Location"); got != "/admin?ok=role_set" {
		t.Fatalf("Location = %q", got)
	}

	var saved models.User
	if err := fx.DB().Collection("users").
		FindOne(ctx, bson.M{"_id": member.ID}).Decode(&saved); err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if saved.Role != models.RoleAdmin {
		t.Fatalf("role = %q, want admin", saved.Role)
	}
}

func TestServeSeed_Idempotent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	super := fx.CreateUser(ctx, "Root", "root@club.example", models.RoleSuperAdmin)

	postForm(h.ServeSeed, super, "/admin/departments/seed", "", nil)
	rec := postForm(h.ServeSeed, super, "/admin/departments/seed", "", nil)

	if got := rec.Header().Get("Location"); got != "/admin?ok=seeded" {
		t.Fatalf("Location = %q", got)
	}

	n, err := fx.DB().Collection("departments").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count departments: %v", err)
	}
	if n != 6 {
		t.Fatalf("departments = %d, want 6", n)
	}
}

func TestServeCreateProject_DuplicateName(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	fx.CreateDepartment(ctx, "technical", "Technical", 30, 0)

	form := url.Values{"name": {"Sensor Grid"}, "department": {"technical"}}
	first := postForm(h.ServeCreateProject, adm, "/admin/projects", "", form)
	if got := first.Header().Get("Location"); got != "/admin?ok=project" {
		t.Fatalf("first create redirected to %q", got)
	}

	second := postForm(h.ServeCreateProject, adm, "/admin/projects", "", form)
	if got := second.Header().Get("Location"); got != "/admin?error=dup_project" {
		t.Fatalf("Location = %q, want dup_project", got)
	}
}

func TestServeApprove_UnknownContribution(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := fx.CreateAdmin(ctx, "Admin", "admin@club.example")
	missing := primitive.NewObjectID()

	rec := postForm(h.ServeApprove, adm,
		"/admin/contributions/"+missing.Hex()+"/approve", missing.Hex(),
		url.Values{"points": {"5"}})

	if got := rec.Header().Get("Location"); got != "/admin?error=not_found" {
		t.Fatalf("Location = %q, want not_found", got)
	}
}
