package auth

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	authmw "github.com/testprep-labs/testprep/internal/auth/middleware"
)

// GuestLoginHandler issues a bearer token for an anonymous practice user.
// The guest identity is remembered in a cookie so the same browser keeps
// its identity across visits; there are no accounts behind it.
func GuestLoginHandler(a *authmw.AuthService) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		// Reuse the guest identity from the cookie when present.
		guestID := ""
		if c, err := r.Cookie("tp_guest_id"); err == nil && strings.HasPrefix(c.Value, "guest|") {
			guestID = c.Value
		}
		if guestID == "" {
			guestID = "guest|" + strconv.FormatInt(time.Now().UnixNano(), 36)
		}
		tok, err := a.IssueJWT(guestID)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "tp_guest_id",
			Value:    guestID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		sfx := strings.TrimPrefix(guestID, "guest|")
		if len(sfx) > 6 {
			sfx = sfx[len(sfx)-6:]
		}
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: "guest-" + sfx})
	}
}
