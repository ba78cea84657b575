package hikes

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/sessions"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/sirupsen/logrus"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

type testApp struct {
	db     *gorm.DB
	router chi.Router
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	// A second pool connection would see an empty in-memory database.
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := models.Setup(db); err != nil {
		t.Fatalf("could not set up models: %v", err)
	}

	store := sessions.NewCookieStore([]byte("test-secret"))
	log := logrus.New()
	log.Out = ioutil.Discard

	rend := render.New(store, log, true)
	rend.AddTemplates(packr.NewBox("../templates"))
	a := auth.New(db, store, rend)

	r := chi.NewRouter()
	r.Use(a.Middleware)
	a.Register(r)
	New(db, rend, a).Register(r)

	return &testApp{db: db, router: r}
}

func (app *testApp) login(t *testing.T, email string) (models.User, *http.Cookie) {
	t.Helper()

	user := models.User{FullName: "Test User", Email: email, Password: "pw1"}
	if err := models.NewUserStore(app.db).Create(&user); err != nil {
		t.Fatalf("could not create user: %v", err)
	}

	form := url.Values{"email": {email}, "password": {"pw1"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	var cookie *http.Cookie
	for _, candidate := range w.Result().Cookies() {
		if candidate.Name == render.SessionName {
			cookie = candidate
		}
	}
	if cookie == nil {
		t.Fatal("login did not set a session cookie")
	}
	return user, cookie
}

func (app *testApp) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) createHike(t *testing.T, hike models.Hike) models.Hike {
	t.Helper()

	if err := models.NewHikeStore(app.db).Create(&hike); err != nil {
		t.Fatalf("could not create hike: %v", err)
	}
	return hike
}

func strPtr(s string) *string { return &s }

func itoa(id uint) string { return strconv.Itoa(int(id)) }

func TestListShowsHikes(t *testing.T) {
	app := newTestApp(t)
	app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})
	app.createHike(t, models.Hike{Name: "Eaton Canyon Falls Trail", Address: "Pasadena, CA"})

	w := app.get(t, "/hikes")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"Runyon Canyon Loop", "Eaton Canyon Falls Trail"} {
		if !strings.Contains(body, name) {
			t.Errorf("page missing hike %q", name)
		}
	}
}

func TestSearchFiltersResults(t *testing.T) {
	app := newTestApp(t)
	app.createHike(t, models.Hike{
		Name:       "Runyon Canyon Loop",
		Address:    "Los Angeles, CA",
		Difficulty: strPtr("moderate"),
	})
	app.createHike(t, models.Hike{
		Name:       "Cedar Grove and Vista View Point",
		Address:    "Los Angeles, CA",
		Difficulty: strPtr("easy"),
	})

	w := app.get(t, "/hikes/search?keyword=canyon&difficulty=moderate")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Runyon Canyon Loop") {
		t.Error("page missing the matching hike")
	}
	if strings.Contains(body, "Cedar Grove and Vista View Point") {
		t.Error("page shows a hike the search should exclude")
	}
}

func TestSearchBadLength(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/hikes/search?length_min=abc")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", w.Code)
	}
}

func TestViewMissingHike(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/hikes/999")
	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", w.Code)
	}
}

func TestViewShowsComments(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	comment := models.Comment{HikeID: hike.ID, UserID: user.ID, Body: "Shady in the morning."}
	if err := models.NewCommentStore(app.db).Create(&comment); err != nil {
		t.Fatalf("could not create comment: %v", err)
	}

	w := app.get(t, "/hikes/"+itoa(hike.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Shady in the morning.") {
		t.Error("page missing the comment")
	}
}

func TestAddComment(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	w := app.postForm(t, "/hikes/"+itoa(hike.ID)+"/comments", url.Values{
		"body": {"Bring water, no shade past the gate."},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/hikes/"+itoa(hike.ID) {
		t.Errorf("got redirect to %q", location)
	}

	comments, err := models.NewCommentStore(app.db).ByHike(hike.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "Bring water, no shade past the gate." {
		t.Errorf("got comments %v", comments)
	}
}

func TestAddCommentEmptyBody(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	w := app.postForm(t, "/hikes/"+itoa(hike.ID)+"/comments", url.Values{
		"body": {""},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302 flash redirect", w.Code)
	}

	var count int
	if err := app.db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("could not count comments: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d comments, want none", count)
	}
}

func TestAddCommentAnonymous(t *testing.T) {
	app := newTestApp(t)
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	w := app.postForm(t, "/hikes/"+itoa(hike.ID)+"/comments", url.Values{
		"body": {"Sneaky comment."},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want a flash redirect", w.Code)
	}

	var count int
	if err := app.db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("could not count comments: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d comments, want none for an anonymous request", count)
	}
}

func TestEditCommentMarksEdited(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	comment := models.Comment{HikeID: hike.ID, UserID: user.ID, Body: "First draft."}
	if err := models.NewCommentStore(app.db).Create(&comment); err != nil {
		t.Fatalf("could not create comment: %v", err)
	}

	w := app.postForm(t, "/edit-comment", url.Values{
		"edit": {itoa(comment.ID)},
		"body": {"Second draft."},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	stored, found, err := models.NewCommentStore(app.db).ByID(comment.ID)
	if err != nil || !found {
		t.Fatalf("could not reload comment: found=%v err=%v", found, err)
	}
	if stored.Body != "Second draft." {
		t.Errorf("got body %q", stored.Body)
	}
	if !stored.Edited || stored.EditedAt == nil {
		t.Error("comment should be marked edited")
	}
}

func TestEditCommentNotAuthor(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	other := models.User{FullName: "Other", Email: "other@x.com", Password: "pw2"}
	if err := models.NewUserStore(app.db).Create(&other); err != nil {
		t.Fatalf("could not create user: %v", err)
	}
	comment := models.Comment{HikeID: hike.ID, UserID: other.ID, Body: "Someone else's words."}
	if err := models.NewCommentStore(app.db).Create(&comment); err != nil {
		t.Fatalf("could not create comment: %v", err)
	}

	w := app.postForm(t, "/edit-comment", url.Values{
		"edit": {itoa(comment.ID)},
		"body": {"Hijacked."},
	}, cookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}

	stored, _, err := models.NewCommentStore(app.db).ByID(comment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Body != "Someone else's words." {
		t.Errorf("comment modified by a non-author, got %q", stored.Body)
	}
}

func TestDeleteComment(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, models.Hike{Name: "Runyon Canyon Loop", Address: "Los Angeles, CA"})

	comment := models.Comment{HikeID: hike.ID, UserID: user.ID, Body: "Delete me."}
	if err := models.NewCommentStore(app.db).Create(&comment); err != nil {
		t.Fatalf("could not create comment: %v", err)
	}

	w := app.postForm(t, "/delete-comment", url.Values{
		"delete": {itoa(comment.ID)},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	_, found, err := models.NewCommentStore(app.db).ByID(comment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("comment should be gone")
	}
}
