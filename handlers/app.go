package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/pkg/errors"
)

const markPurchasedPrefix = "/view/mark_purchased/"

// App is the router as served: request bodies are capped, then every unsafe
// request must carry the CSRF form token. Mark purchased is exempt; the
// public id it requires is already the share capability.
func (h *Handler) App(csrfKey []byte, secure bool) http.Handler {
	protect := csrf.Protect(csrfKey,
		csrf.Secure(secure),
		csrf.Path("/"),
	)
	protected := protect(h.Routes())

	return h.limitBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !secure {
			// Without TLS csrf would insist on an https Referer.
			r = csrf.PlaintextHTTPRequest(r)
		}
		if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, markPurchasedPrefix) {
			r = csrf.UnsafeSkipCheck(r)
		}
		protected.ServeHTTP(w, r)
	}))
}

// limitBody caps request bodies at MaxUploadBytes. Multipart forms are parsed
// here, before csrf reads its token from them, so an oversized photo ends in
// the PhotoTooLarge flash instead of being spooled to disk.
func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					h.formError(w, r, err)
					return
				}
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
