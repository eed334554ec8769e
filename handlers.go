package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// loader fetches the values a page template reads.
type loader func(r *http.Request) (map[string]any, error)

// page is a rendered view: a template plus the query that feeds it.
type page struct {
	app      *App
	template string
	load     loader
}

func (p page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if p.load != nil {
		var err error
		data, err = p.load(r)
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			p.app.log.WithError(err).WithField("path", r.URL.Path).Error("loading page data")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	if err := p.app.render(w, p.template, data); err != nil {
		p.app.log.WithError(err).WithField("template", p.template).Error("rendering page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (a *App) page(template string, load loader) page {
	return page{app: a, template: template, load: load}
}

func (a *App) HomePage() http.Handler {
	return a.page("homepage.html", nil)
}

func (a *App) UserList() http.Handler {
	return a.page("user_list.html", a.loadUsers)
}

func (a *App) UserDetail() http.Handler {
	return a.page("user_detail.html", a.loadUser)
}

func (a *App) PostList() http.Handler {
	return a.page("post_list.html", a.loadPosts)
}

func (a *App) PostDetail() http.Handler {
	return a.page("post_detail.html", a.loadPost)
}

func (a *App) UserPostsList() http.Handler {
	return a.page("user_posts.html", a.loadUserPosts)
}

func (a *App) loadUsers(r *http.Request) (map[string]any, error) {
	users, err := a.store.Users(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"users": users}, nil
}

func (a *App) loadUser(r *http.Request) (map[string]any, error) {
	user, err := a.store.UserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"user": user}, nil
}

func (a *App) loadPosts(r *http.Request) (map[string]any, error) {
	posts, err := a.store.Posts(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"posts": posts}, nil
}

func (a *App) loadPost(r *http.Request) (map[string]any, error) {
	raw := chi.URLParam(r, "post_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Only reachable when the route pattern lets a non-integer through.
		return nil, &NotFoundError{Entity: "post", Key: raw}
	}

	post, err := a.store.PostByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"post": post}, nil
}

// loadUserPosts resolves the user first; an unknown username never reaches
// the post query.
func (a *App) loadUserPosts(r *http.Request) (map[string]any, error) {
	user, err := a.store.UserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		return nil, err
	}

	posts, err := a.store.PostsByUser(r.Context(), user.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"user":  user,
		"posts": posts,
	}, nil
}
