package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signed(t *testing.T, secret []byte, sub, email string) string {
	t.Helper()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func identityRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "email": Email(c)})
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	r := identityRouter(OptionalAuth(testSecret))
	if w := get(r, ""); w.Code != http.StatusOK {
		t.Fatalf("expected anonymous request through, got %d", w.Code)
	}
}

func TestOptionalAuthRecordsIdentity(t *testing.T) {
	r := identityRouter(OptionalAuth(testSecret))
	w := get(r, signed(t, testSecret, "user-1", "jan@firma.pl"))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	want := `"user_id":"user-1"`
	if body := w.Body.String(); !strings.Contains(body, want) || !strings.Contains(body, `"email":"jan@firma.pl"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	r := identityRouter(RequireAuth(testSecret))

	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", w.Code)
	}
	if w := get(r, "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("malformed token: status %d", w.Code)
	}
	if w := get(r, signed(t, []byte("wrong-secret"), "user-1", "a@b.pl")); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong signature: status %d", w.Code)
	}
	if w := get(r, signed(t, testSecret, "", "a@b.pl")); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing subject: status %d", w.Code)
	}
	if w := get(r, signed(t, testSecret, "user-1", "a@b.pl")); w.Code != http.StatusOK {
		t.Fatalf("valid token: status %d", w.Code)
	}
}

type adminSet map[string]bool

func (a adminSet) IsAdmin(_ context.Context, userID string) (bool, error) {
	return a[userID], nil
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admins := adminSet{"admin-1": true}
	r.GET("/admin", RequireAuth(testSecret), RequireAdmin(admins), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := func(token string) int {
		rq := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			rq.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w.Code
	}

	if code := req(""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d", code)
	}
	if code := req(signed(t, testSecret, "user-1", "a@b.pl")); code != http.StatusForbidden {
		t.Fatalf("non-admin: status %d", code)
	}
	if code := req(signed(t, testSecret, "admin-1", "a@b.pl")); code != http.StatusOK {
		t.Fatalf("admin: status %d", code)
	}
}
