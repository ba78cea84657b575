package bookmarks

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
	lists  *models.BookmarksListStore
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

	return &testApp{db: db, router: r, lists: models.NewBookmarksListStore(db)}
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

func (app *testApp) createHike(t *testing.T, name string) models.Hike {
	t.Helper()

	hike := models.Hike{Name: name, Address: "Los Angeles, CA"}
	if err := models.NewHikeStore(app.db).Create(&hike); err != nil {
		t.Fatalf("could not create hike: %v", err)
	}
	return hike
}

func (app *testApp) createList(t *testing.T, userID uint, name string) models.BookmarksList {
	t.Helper()

	list := models.BookmarksList{Name: name, UserID: userID}
	if err := app.lists.Create(&list); err != nil {
		t.Fatalf("could not create list: %v", err)
	}
	return list
}

func itoa(id uint) string { return strconv.Itoa(int(id)) }

func TestAddHikeCreatesNewList(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	hike := app.createHike(t, "Runyon Canyon Loop")

	w := app.postForm(t, "/add-hike", url.Values{
		"hike_id":             {itoa(hike.ID)},
		"bookmarks_list_name": {"Trail Favorites"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	list, found, err := app.lists.ByUserAndName(user.ID, "Trail Favorites")
	if err != nil || !found {
		t.Fatalf("list missing after add-hike: found=%v err=%v", found, err)
	}

	hikes, err := app.lists.HikesInList(list.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hikes) != 1 || hikes[0].ID != hike.ID {
		t.Errorf("got hikes %v, want the bookmarked hike", hikes)
	}
}

func TestAddHikeAppendsToExistingList(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	list := app.createList(t, user.ID, "Trail Favorites")
	first := app.createHike(t, "Runyon Canyon Loop")
	second := app.createHike(t, "Eaton Canyon Falls Trail")
	if err := app.lists.AddHike(list.ID, first.ID); err != nil {
		t.Fatalf("could not add hike: %v", err)
	}

	w := app.postForm(t, "/add-hike", url.Values{
		"hike_id":             {itoa(second.ID)},
		"bookmarks_list_name": {"Trail Favorites"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	var listCount int
	if err := app.db.Model(&models.BookmarksList{}).Count(&listCount).Error; err != nil {
		t.Fatalf("could not count lists: %v", err)
	}
	if listCount != 1 {
		t.Errorf("got %d lists, want the existing list reused", listCount)
	}

	hikes, err := app.lists.HikesInList(list.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hikes) != 2 {
		t.Errorf("got %d hikes in list, want 2", len(hikes))
	}
}

func TestAddHikeNameTakenByOtherUser(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "jane@x.com")

	other := models.User{FullName: "Other", Email: "other@x.com", Password: "pw2"}
	if err := models.NewUserStore(app.db).Create(&other); err != nil {
		t.Fatalf("could not create user: %v", err)
	}
	app.createList(t, other.ID, "Trail Favorites")
	hike := app.createHike(t, "Runyon Canyon Loop")

	w := app.postForm(t, "/add-hike", url.Values{
		"hike_id":             {itoa(hike.ID)},
		"bookmarks_list_name": {"Trail Favorites"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302 flash redirect", w.Code)
	}

	var listCount int
	if err := app.db.Model(&models.BookmarksList{}).Count(&listCount).Error; err != nil {
		t.Fatalf("could not count lists: %v", err)
	}
	if listCount != 1 {
		t.Errorf("got %d lists, want no list created over the taken name", listCount)
	}
}

func TestDeleteList(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	list := app.createList(t, user.ID, "Trail Favorites")
	hike := app.createHike(t, "Runyon Canyon Loop")
	if err := app.lists.AddHike(list.ID, hike.ID); err != nil {
		t.Fatalf("could not add hike: %v", err)
	}

	w := app.postForm(t, "/delete-bookmarks-list", url.Values{
		"delete": {itoa(list.ID)},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	_, found, err := app.lists.ByID(list.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("list should be gone")
	}

	count, err := app.lists.LinkCount(list.ID)
	if err != nil {
		t.Fatalf("could not count links: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d join rows after delete, want 0", count)
	}
}

func TestDeleteListNotOwner(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "jane@x.com")

	other := models.User{FullName: "Other", Email: "other@x.com", Password: "pw2"}
	if err := models.NewUserStore(app.db).Create(&other); err != nil {
		t.Fatalf("could not create user: %v", err)
	}
	list := app.createList(t, other.ID, "Theirs")

	w := app.postForm(t, "/delete-bookmarks-list", url.Values{
		"delete": {itoa(list.ID)},
	}, cookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}

	_, found, err := app.lists.ByID(list.ID)
	if err != nil || !found {
		t.Errorf("list should survive a non-owner delete: found=%v err=%v", found, err)
	}
}

func TestRenameList(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	list := app.createList(t, user.ID, "Trail Favorites")

	w := app.postForm(t, "/edit-bookmarks-list", url.Values{
		"edit":                {itoa(list.ID)},
		"bookmarks_list_name": {"Weekend Hikes"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	stored, found, err := app.lists.ByID(list.ID)
	if err != nil || !found {
		t.Fatalf("could not reload list: found=%v err=%v", found, err)
	}
	if stored.Name != "Weekend Hikes" {
		t.Errorf("got name %q", stored.Name)
	}
}

func TestRenameListDuplicateName(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	list := app.createList(t, user.ID, "Trail Favorites")
	app.createList(t, user.ID, "Weekend Hikes")

	w := app.postForm(t, "/edit-bookmarks-list", url.Values{
		"edit":                {itoa(list.ID)},
		"bookmarks_list_name": {"Weekend Hikes"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302 flash redirect", w.Code)
	}

	stored, _, err := app.lists.ByID(list.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Name != "Trail Favorites" {
		t.Errorf("got name %q, want the rename rejected", stored.Name)
	}
}

func TestRemoveHike(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "jane@x.com")
	list := app.createList(t, user.ID, "Trail Favorites")
	hike := app.createHike(t, "Runyon Canyon Loop")
	if err := app.lists.AddHike(list.ID, hike.ID); err != nil {
		t.Fatalf("could not add hike: %v", err)
	}

	w := app.postForm(t, "/remove-hike", url.Values{
		"hike_id":           {itoa(hike.ID)},
		"bookmarks_list_id": {itoa(list.ID)},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}

	hikes, err := app.lists.HikesInList(list.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hikes) != 0 {
		t.Errorf("got %d hikes, want the bookmark removed", len(hikes))
	}

	_, found, err := models.NewHikeStore(app.db).ByID(hike.ID)
	if err != nil || !found {
		t.Errorf("hike itself should survive: found=%v err=%v", found, err)
	}
}

func TestBookmarksPageRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/bookmarks", nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Errorf("got status %d, want a flash redirect", w.Code)
	}
}
