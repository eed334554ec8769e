package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	if a.staticDir != "" {
		if info, err := os.Stat(a.staticDir); err == nil && info.IsDir() {
			fs := http.FileServer(http.Dir(a.staticDir))
			r.Handle("/static/*", http.StripPrefix("/static/", fs))
		}
	}

	r.Method(http.MethodGet, "/", a.HomePage())
	r.Method(http.MethodGet, "/users", a.UserList())
	r.Method(http.MethodGet, "/users/{username}", a.UserDetail())
	r.Method(http.MethodGet, "/users/{username}/posts", a.UserPostsList())
	r.Method(http.MethodGet, "/posts", a.PostList())
	r.Method(http.MethodGet, "/posts/{post_id:[0-9]+}", a.PostDetail())

	return r
}

// requestLogger tags each request with an id and logs it once the response
// has been written.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := a.log.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request")
			} else {
				entry.Info("request")
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
