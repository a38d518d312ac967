// Package web renders the server-side HTML views and carries the flash
// message helper shared by the page handlers.
package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page.
// Category is one of "success", "error", "info".
type Flash struct {
	Category string
	Message  string
}

// Renderer holds the parsed page templates.
type Renderer struct {
	tpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tpl: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

// Render writes the named template. Template errors are logged, not
// fatal; by then part of the body may already be out, so no error page.
func (rn *Renderer) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rn.tpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// SetFlash queues a flash message for the next page load.
func SetFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		HttpOnly: true,
	})
}

// PopFlash reads and clears the pending flash message, if any.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Flash{Category: category, Message: message}
}
