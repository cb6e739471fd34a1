package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionRoundTrip(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	session := &Session{Slug: "demo", Capabilities: []Capability{CapabilityClientPrep, CapabilityStorytelling}}
	require.NoError(t, SetSession(c, session, false))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	// The cookie must never carry the plaintext access code.
	assert.NotContains(t, cookies[0].Value, "demo-code")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	c2 := e.NewContext(req, httptest.NewRecorder())

	got := GetSession(c2)
	require.NotNil(t, got)
	assert.Equal(t, "demo", got.Slug)
	assert.True(t, got.Has(CapabilityClientPrep))
	assert.True(t, got.Has(CapabilityStorytelling))
}

func TestGetSessionMalformedCookie(t *testing.T) {
	e := echo.New()

	t.Run("missing cookie", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assert.Nil(t, GetSession(c))
	})

	t.Run("garbage value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "not-base64!!"})
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Nil(t, GetSession(c))
	})

	t.Run("valid base64 but empty slug", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "e30="}) // {}
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Nil(t, GetSession(c))
	})
}

func TestSessionCapabilities(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Has(CapabilityClientPrep))

	s := &Session{Slug: "demo"}
	assert.False(t, s.Has(CapabilityStorytelling))
	s.Grant(CapabilityStorytelling)
	s.Grant(CapabilityStorytelling)
	assert.True(t, s.Has(CapabilityStorytelling))
	assert.Len(t, s.Capabilities, 1)
}

func TestSafeCompare(t *testing.T) {
	assert.True(t, SafeCompare("hunter2", "hunter2"))
	assert.False(t, SafeCompare("hunter2", "hunter3"))
	assert.False(t, SafeCompare("short", "a much longer value"))
	assert.True(t, SafeCompare("", ""))
}

func TestVerifyAccessCode(t *testing.T) {
	t.Run("bcrypt stored code", func(t *testing.T) {
		hash, err := HashAccessCode("orchid-42")
		require.NoError(t, err)
		assert.True(t, VerifyAccessCode("orchid-42", hash))
		assert.False(t, VerifyAccessCode("orchid-43", hash))
	})

	t.Run("legacy plaintext code", func(t *testing.T) {
		assert.True(t, VerifyAccessCode("legacy-code", "legacy-code"))
		assert.False(t, VerifyAccessCode("wrong", "legacy-code"))
	})
}

func TestGenerateAccessCode(t *testing.T) {
	code := GenerateAccessCode()
	assert.Len(t, code, 12)
	assert.Equal(t, strings.ToLower(code), code)
	assert.NotEqual(t, code, GenerateAccessCode())

	// Generated codes verify through the stored hash path.
	hash, err := HashAccessCode(code)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)))
}
