package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/evalphobia/logrus_sentry"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/bookmarks"
	"github.com/pupjourney/pupjourney-go/checkins"
	"github.com/pupjourney/pupjourney-go/files"
	"github.com/pupjourney/pupjourney-go/hikes"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/pages"
	"github.com/pupjourney/pupjourney-go/pets"
	"github.com/pupjourney/pupjourney-go/render"
	"github.com/pupjourney/pupjourney-go/seed"
)

func main() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 3000)
	port := viper.GetInt("port")

	viper.SetDefault("host", "localhost")
	host := viper.GetString("host")

	viper.SetDefault("prod", false)
	isProd := viper.GetBool("prod")

	viper.SetDefault("cookie_key", "SESSION_SECRET")
	cookieKey := viper.GetString("cookie_key")

	viper.SetDefault("csrf_key", "CSRF_SECRET_32_BYTES_LONG_______")
	csrfKey := viper.GetString("csrf_key")

	viper.SetDefault("database_url", "host=localhost user=postgres dbname=pupjourney sslmode=disable password=postgres")

	log := logrus.New()
	if dsn := viper.GetString("sentry_dsn"); dsn != "" {
		hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			log.WithError(err).Error("could not configure sentry hook")
		} else {
			log.Hooks.Add(hook)
		}
	}

	DB, err := gorm.Open("postgres", viper.GetString("database_url"))
	if err != nil {
		log.Fatalf("could not open db: %v", err)
	}
	defer DB.Close()

	if err := models.Setup(DB); err != nil {
		log.Fatalln(err)
	}

	if viper.GetBool("seed") {
		if err := seed.Hikes(DB, packr.NewBox("./seed/data")); err != nil {
			log.Fatalln(err)
		}
	}

	store := sessions.NewCookieStore([]byte(cookieKey))
	store.MaxAge(60 * 60 * 24 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = isProd

	Render := render.New(store, log, isProd)
	Render.AddTemplates(packr.NewBox("./templates"))

	storage, err := files.NewS3()
	if err != nil {
		log.Fatalln(err)
	}

	Auth := auth.New(DB, store, Render)

	Render.AddContextFunc(func(r *http.Request, ctx render.Context) {
		if user, ok := auth.CurrentUser(r.Context()); ok {
			ctx["user"] = user
		}
	})
	Render.AddContextFunc(func(r *http.Request, ctx render.Context) {
		ctx["csrf_token"] = csrf.Token(r)
	})

	Pages := pages.New(DB, Render, Auth)
	Hikes := hikes.New(DB, Render, Auth)
	Pets := pets.New(DB, Render, Auth, storage)
	CheckIns := checkins.New(DB, Render, Auth)
	Bookmarks := bookmarks.New(DB, Render, Auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(Auth.Middleware)

	Auth.Register(r)
	Pages.Register(r)
	Hikes.Register(r)
	Pets.Register(r)
	CheckIns.Register(r)
	Bookmarks.Register(r)

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(packr.NewBox("./static"))))

	handler := csrf.Protect([]byte(csrfKey), csrf.Secure(isProd))(r)

	http.ListenAndServe(fmt.Sprintf("%s:%d", host, port), handler)
}
