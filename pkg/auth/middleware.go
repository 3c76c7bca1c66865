package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// RequireUser verifies the bearer token and stores it in the request context.
func (v *Verifier) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), tok)))
	})
}

// RequireAdmin is RequireUser plus a check for the admin claim.
func (v *Verifier) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if !tok.IsAdmin() {
			WriteError(w, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), tok)))
	})
}

// WriteError writes an *Error as a JSON body. Other errors become a 401.
func WriteError(w http.ResponseWriter, err error) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		authErr = &Error{Status: http.StatusUnauthorized, Code: CodeInvalidToken, Message: "Invalid token"}
	}
	if authErr.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="`+authErr.Code+`"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": authErr.Code, "message": authErr.Message})
}
