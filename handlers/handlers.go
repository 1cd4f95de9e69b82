package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dchest/captcha"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"wishlist/auth"
	"wishlist/i18n"
	"wishlist/models"
	"wishlist/uploads"
	"wishlist/web"
	"wishlist/wishlist"
)

type Options struct {
	AppName        string
	UploadDir      string
	MaxUploadBytes int64
	SignupCaptcha  bool
	// Metrics is optional; nil disables the /metrics endpoint.
	Metrics *Metrics
}

// Handler serves the HTML routes of the application.
type Handler struct {
	auth  *auth.Service
	lists *wishlist.ListService
	items *wishlist.ItemService
	log   *logrus.Logger
	opts  Options

	loginLimiter  *rateLimiter
	signupLimiter *rateLimiter
}

func New(authSvc *auth.Service, lists *wishlist.ListService, items *wishlist.ItemService, log *logrus.Logger, opts Options) *Handler {
	return &Handler{
		auth:          authSvc,
		lists:         lists,
		items:         items,
		log:           log,
		opts:          opts,
		loginLimiter:  newRateLimiter(),
		signupLimiter: newRateLimiter(),
	}
}

// Routes returns the application router. Order matters: the catch-all
// /{username} routes come last.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	if h.opts.Metrics != nil {
		r.Use(h.opts.Metrics.Middleware)
		r.Handle("/metrics", h.opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(uploads.FileSystem(h.opts.UploadDir))))
	if h.opts.SignupCaptcha {
		r.PathPrefix("/captcha/").Handler(captcha.Server(captcha.StdWidth, captcha.StdHeight))
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(CORSMiddleware)
	api.HandleFunc("/view/{public_id}", h.APIPublicView).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)

	r.HandleFunc("/view/mark_purchased/{item_id}", h.MarkPurchased).Methods(http.MethodPost)
	r.HandleFunc("/view/{public_id}", h.PublicView).Methods(http.MethodGet)

	r.HandleFunc("/wishlist/{wishlist_id}", h.WishlistView).Methods(http.MethodGet)
	r.Handle("/wishlist/{wishlist_id}/add_item", loginRequired(h.AddItem)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/wishlist/{wishlist_id}/item/{item_id}", h.ItemView).Methods(http.MethodGet)
	r.Handle("/wishlist/{wishlist_id}/edit_item/{item_id}", loginRequired(h.EditItem)).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/wishlist/{wishlist_id}/item/{item_id}/delete", loginRequired(h.DeleteItem)).Methods(http.MethodPost)

	r.HandleFunc("/{username}", h.Profile).Methods(http.MethodGet)
	r.Handle("/{username}/add_wishlist", loginRequired(h.AddWishlist)).Methods(http.MethodGet, http.MethodPost)

	return SecurityHeadersMiddleware(r)
}

func loginRequired(fn http.HandlerFunc) http.Handler {
	return auth.RequireLogin(fn)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "home.html", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		ip := getClientIP(r)
		if !h.loginLimiter.Allow(ip) {
			h.flashRedirect(w, r, "error", "TooManyAttempts", "/login")
			return
		}

		username, err := h.auth.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.loginLimiter.RecordFailure(ip)
			h.flashRedirect(w, r, "error", "InvalidCredentials", "/login")
			return
		}
		if err != nil {
			h.serverError(w, r, err)
			return
		}

		h.loginLimiter.Reset(ip)
		if err := auth.SetUsername(w, r, username); err != nil {
			h.serverError(w, r, err)
			return
		}
		http.Redirect(w, r, profilePath(username), http.StatusFound)
		return
	}
	h.renderTemplate(w, r, "login.html", nil)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		ip := getClientIP(r)
		if !h.signupLimiter.Allow(ip) {
			h.flashRedirect(w, r, "error", "TooManyAttempts", "/signup")
			return
		}
		if h.opts.SignupCaptcha && !captcha.VerifyString(r.FormValue("captcha_id"), r.FormValue("captcha_solution")) {
			h.flashRedirect(w, r, "error", "CaptchaInvalid", "/signup")
			return
		}

		err := h.auth.Signup(r.Context(), r.FormValue("username"), r.FormValue("password"))
		switch {
		case errors.Is(err, auth.ErrValidation):
			h.flashRedirect(w, r, "error", "SignupInvalid", "/signup")
			return
		case errors.Is(err, auth.ErrDuplicateUser):
			h.flashRedirect(w, r, "error", "UsernameAlreadyExists", "/signup")
			return
		case err != nil:
			h.serverError(w, r, err)
			return
		}

		// Record signup attempt to limit rate of creation per IP
		h.signupLimiter.RecordFailure(ip)
		h.flashRedirect(w, r, "success", "SignupSuccess", "/login")
		return
	}

	data := map[string]any{}
	if h.opts.SignupCaptcha {
		data["CaptchaID"] = captcha.New()
	}
	h.renderTemplate(w, r, "signup.html", data)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := auth.ClearUsername(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.flashRedirect(w, r, "info", "LoggedOut", "/")
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	lang := i18n.DetectLanguage(r)

	funcMap := template.FuncMap{
		"T": func(key string) string {
			return i18n.T(lang, key)
		},
	}

	tmpl, err := template.New(name).Funcs(funcMap).ParseFS(web.FS, "templates/layout.html", "templates/"+name)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	data["AppName"] = h.opts.AppName
	data["Lang"] = lang
	data["csrfField"] = csrf.TemplateField(r)
	data["CurrentUser"] = auth.GetUsername(r)
	// Popping flashes rewrites the cookie, so it happens before any body write.
	data["Flashes"] = auth.Flashes(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *Handler) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, target string) {
	if err := auth.AddFlash(w, r, category, message); err != nil {
		h.log.WithError(err).Warn("failed to store flash message")
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// fail maps service errors onto the flash-and-redirect responses. Missing
// records go to notFoundTarget, invalid form input back to the form.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundKey, notFoundTarget string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.flashRedirect(w, r, "error", notFoundKey, notFoundTarget)
	case errors.Is(err, wishlist.ErrForbidden):
		h.flashRedirect(w, r, "error", "AccessDeniedOwner", "/")
	case errors.Is(err, wishlist.ErrInvalidInput):
		h.flashRedirect(w, r, "error", "InvalidInput", r.URL.Path)
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func profilePath(username string) string {
	return "/" + url.PathEscape(username)
}

func wishlistPath(id string) string {
	return "/wishlist/" + url.PathEscape(id)
}

func itemPath(wishlistID, itemID string) string {
	return wishlistPath(wishlistID) + "/item/" + url.PathEscape(itemID)
}
