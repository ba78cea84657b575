package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi"
	"github.com/gorilla/sessions"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

type contextKey int

const userKey contextKey = 0

// Session keys for the login state.
const (
	emailKey = "user_email"
	loginKey = "login"
)

type Auth struct {
	store  sessions.Store
	render *render.Render
	users  *models.UserStore
}

func New(db *gorm.DB, store sessions.Store, r *render.Render) *Auth {
	return &Auth{
		store:  store,
		render: r,
		users:  models.NewUserStore(db),
	}
}

func (a *Auth) Register(r chi.Router) {
	r.Get("/login", a.LoginFormHandler)
	r.Post("/login", a.LoginHandler)
	r.Get("/logout", a.LogoutHandler)
	r.Post("/users", a.RegisterHandler)
}

// Middleware resolves the session email to a user and stores it in the
// request context. Requests stay anonymous when the slot is empty or
// the account no longer exists.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.store.Get(r, render.SessionName)
		if err == nil {
			if email, ok := session.Values[emailKey].(string); ok {
				user, found, err := a.users.ByEmail(email)
				if err == nil && found {
					r = r.WithContext(context.WithValue(r.Context(), userKey, user))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user, or ok=false for an
// anonymous request.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// RequireUser returns the authenticated user. For anonymous requests
// it flashes the message, redirects home and returns ok=false; the
// caller must stop without mutating anything.
func (a *Auth) RequireUser(w http.ResponseWriter, r *http.Request, message string) (models.User, bool) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		if err := a.render.AddFlash(w, r, render.FlashError(message)); err != nil {
			a.render.Error(w, r, err)
			return user, false
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
	return user, ok
}

func (a *Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	fullName := r.FormValue("full_name")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if !govalidator.IsEmail(email) {
		a.flashAndRedirect(w, r, render.FlashError("Please enter a valid email address."), "/")
		return
	}

	_, found, err := a.users.ByEmail(email)
	if err != nil {
		a.render.Error(w, r, err)
		return
	}
	if found {
		a.flashAndRedirect(w, r, render.FlashError("There is already an account associated with that email. Please try again."), "/")
		return
	}

	user := models.User{
		FullName: fullName,
		Email:    email,
		Password: password,
	}
	if err := a.users.Create(&user); err != nil {
		if _, ok := errors.Cause(err).(govalidator.Errors); ok {
			a.flashAndRedirect(w, r, render.FlashError("Please fill in all registration fields."), "/")
			return
		}
		a.render.Error(w, r, err)
		return
	}

	a.flashAndRedirect(w, r, render.FlashInfo("Success! Account created. Please log in."), "/")
}

func (a *Auth) LoginFormHandler(w http.ResponseWriter, r *http.Request) {
	a.render.Template(w, r, "login.html", render.Context{})
}

func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, found, err := a.users.ByEmail(email)
	if err != nil {
		a.render.Error(w, r, err)
		return
	}
	if !found || user.Password != password {
		a.flashAndRedirect(w, r, render.FlashError("The email or password is incorrect."), "/")
		return
	}

	session, err := a.store.Get(r, render.SessionName)
	if err != nil {
		a.render.Error(w, r, err)
		return
	}
	session.Values[emailKey] = user.Email
	session.Values[loginKey] = true
	if err := session.Save(r, w); err != nil {
		a.render.Error(w, r, err)
		return
	}

	a.flashAndRedirect(w, r, render.FlashInfo(fmt.Sprintf("Welcome back, %s!", user.FullName)), "/")
}

func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, err := a.store.Get(r, render.SessionName)
	if err != nil {
		a.render.Error(w, r, err)
		return
	}

	if _, ok := session.Values[loginKey]; !ok {
		a.flashAndRedirect(w, r, render.FlashError("You are not logged in."), "/")
		return
	}

	delete(session.Values, loginKey)
	delete(session.Values, emailKey)
	if err := session.Save(r, w); err != nil {
		a.render.Error(w, r, err)
		return
	}

	a.flashAndRedirect(w, r, render.FlashInfo("Successfully logged out!"), "/")
}

func (a *Auth) flashAndRedirect(w http.ResponseWriter, r *http.Request, flash render.Flash, to string) {
	if err := a.render.AddFlash(w, r, flash); err != nil {
		a.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}
