package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"time"
)

const staffCookieName = "staff_session"

// RequireStaff gates the views that write back to the store. An empty
// password disables the gate, which keeps local development friction-free.
func RequireStaff(pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pass == "" {
				next.ServeHTTP(w, r)
				return
			}
			c, err := r.Cookie(staffCookieName)
			if err != nil || c.Value != "ok" {
				http.Redirect(w, r, "/login?next="+r.URL.RequestURI(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GET /login
func LoginForm(t *template.Template) http.HandlerFunc {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/login.tmpl"))

	return func(w http.ResponseWriter, r *http.Request) {
		_ = view.ExecuteTemplate(w, "login.tmpl", map[string]any{
			"Title": "스태프 로그인",
			"Next":  r.URL.Query().Get("next"),
			"Flash": MakeFlash(r, "", ""),
		})
	}
}

// POST /login
func LoginSubmit(pass string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next := r.FormValue("next")
		if next == "" {
			next = "/scoreboard"
		}
		if pass != "" && r.FormValue("password") != pass {
			http.Redirect(w, r,
				"/login?err="+url.QueryEscape("비밀번호가 올바르지 않습니다")+"&next="+url.QueryEscape(next),
				http.StatusSeeOther)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     staffCookieName,
			Value:    "ok",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(24 * time.Hour),
		})
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// POST /logout
func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     staffCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
