package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name":"alice"}`))

		var dest struct {
			Name string `json:"name"`
		}
		require.NoError(t, ParseJSON(req, &dest))
		assert.Equal(t, "alice", dest.Name)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{not json`))

		var dest map[string]interface{}
		assert.Error(t, ParseJSON(req, &dest))
	})
}

func TestParseJSONOrError(t *testing.T) {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{broken`))
	rr := httptest.NewRecorder()

	var dest map[string]interface{}
	ok := ParseJSONOrError(rr, req, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParsePathInt64(t *testing.T) {
	router := mux.NewRouter()

	var got int64
	var gotErr error
	router.HandleFunc("/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParsePathInt64(r, "id")
	})

	req := httptest.NewRequest("GET", "/contacts/42", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)
}

func TestParsePathInt64_Invalid(t *testing.T) {
	router := mux.NewRouter()

	var gotErr error
	router.HandleFunc("/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, gotErr = ParsePathInt64(r, "id")
	})

	req := httptest.NewRequest("GET", "/contacts/abc", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Error(t, gotErr)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/contacts/birthdays?days=14", nil)

	val, err := ParseQueryInt(req, "days", 7)
	require.NoError(t, err)
	assert.Equal(t, 14, val)

	val, err = ParseQueryInt(req, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, val)

	req = httptest.NewRequest("GET", "/contacts/birthdays?days=soon", nil)
	_, err = ParseQueryInt(req, "days", 7)
	assert.Error(t, err)
}

func TestRequireNonEmpty(t *testing.T) {
	rr := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(rr, "value", "field"))

	rr = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(rr, "", "field"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
