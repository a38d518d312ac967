package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/mining-tracker/internal/models"
	"github.com/ayush/mining-tracker/internal/store"
	"github.com/ayush/mining-tracker/internal/web"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, login, hashedPw, email string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds the auth page handlers: register, login, logout, home.
type Handler struct {
	users    UserStore
	sessions Sessions
	views    *web.Renderer
}

func NewHandler(users UserStore, sessions Sessions, views *web.Renderer) *Handler {
	return &Handler{users: users, sessions: sessions, views: views}
}

// Home redirects authenticated users to the dashboard and shows the
// login view to everyone else.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.views.Render(w, "login.html", web.FormPage{
		Flash: web.PopFlash(w, r),
		Form:  map[string]string{},
	})
}

// RegisterPage renders the empty registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, "register.html", web.FormPage{
		Flash: web.PopFlash(w, r),
		Form:  map[string]string{},
	})
}

// Register creates a new user from the submitted form. A duplicate
// username, login, or email re-renders the form with a message naming
// the colliding field; nothing is committed in that case.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := models.RegisterForm{
		Username: r.PostFormValue("username"),
		Login:    r.PostFormValue("login"),
		Password: r.PostFormValue("password"),
		Email:    r.PostFormValue("email"),
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	_, err = h.users.CreateUser(r.Context(), form.Username, form.Login, string(hashed), form.Email)
	if err != nil {
		h.views.Render(w, "register.html", web.FormPage{
			Flash: &web.Flash{Category: "error", Message: registerErrorMessage(err)},
			Form: map[string]string{
				"username": form.Username,
				"login":    form.Login,
				"email":    form.Email,
			},
		})
		return
	}

	web.SetFlash(w, "success", "Registration successful! You can now log in.")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrDuplicateUsername):
		return "This username is already taken"
	case errors.Is(err, store.ErrDuplicateLogin):
		return "This login is already in use"
	case errors.Is(err, store.ErrDuplicateEmail):
		return "This email is already registered"
	default:
		return "Registration failed"
	}
}

// LoginPage renders the login form, or goes straight to the dashboard
// when a valid session already exists.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.views.Render(w, "login.html", web.FormPage{
		Flash: web.PopFlash(w, r),
		Form:  map[string]string{},
	})
}

// Login verifies the submitted credentials and establishes a session.
// A missing user and a wrong password produce the same message.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := models.LoginForm{
		Login:    r.PostFormValue("login"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.users.GetUserByLogin(r.Context(), form.Login)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password))
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Printf("login lookup: %v", err)
		}
		h.views.Render(w, "login.html", web.FormPage{
			Flash: &web.Flash{Category: "error", Message: "Invalid login or password"},
			Form:  map[string]string{"login": form.Login},
		})
		return
	}

	sid, err := h.sessions.Create(r.Context(), Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		log.Printf("session create: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})

	web.SetFlash(w, "success", "You have logged in successfully!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout destroys the current session unconditionally.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Printf("session delete: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	web.SetFlash(w, "info", "You have logged out")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// currentIdentity resolves the session cookie, if any, to an identity.
func (h *Handler) currentIdentity(r *http.Request) *Identity {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	ident, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return ident
}
