package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestHandlerRegisterLoginMe(t *testing.T) {
	svc := newService()
	h := NewHandler(svc)

	rec := post(h.Register, `{"email":"me@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.Equal(t, "me@example.com", sess.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = post(h.Register, `{"email":"ME@example.com","password":"password456"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(h.Register, `{"email":"bad","password":"password456"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h.Login, `{"email":"me@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(h.Login, `{"email":"me@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, sess.User.ID, login.User.ID)

	me := httptest.NewRecorder()
	h.Me(me, httptest.NewRequest(http.MethodGet, "/v1/me", nil), sess.User.ID)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"email":"me@example.com"`)

	me = httptest.NewRecorder()
	h.Me(me, httptest.NewRequest(http.MethodGet, "/v1/me", nil), "missing")
	assert.Equal(t, http.StatusNotFound, me.Code)
}
