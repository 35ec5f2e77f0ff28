package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Title string `json:"title"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, DecodeJSON(r, &body))
	assert.Equal(t, "x", body.Title)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, DecodeJSON(r, &body))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	assert.ErrorIs(t, DecodeJSON(r, &body), ErrBadBody)
}

func TestPathID(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "12", "bad": "x", "neg": "-1"})

	id, ok := PathID(r, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok = PathID(r, "bad")
	assert.False(t, ok)
	_, ok = PathID(r, "neg")
	assert.False(t, ok)
	_, ok = PathID(r, "missing")
	assert.False(t, ok)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&neg=-1&zero=0", nil)
	assert.Equal(t, 5, QueryInt(r, "limit", 50))
	assert.Equal(t, 50, QueryInt(r, "bad", 50))
	assert.Equal(t, 50, QueryInt(r, "none", 50))
	assert.Equal(t, 50, QueryInt(r, "neg", 50))
	assert.Equal(t, 50, QueryInt(r, "zero", 50))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("2026-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), *d)

	_, err = ParseDate("01/03/2026")
	assert.Error(t, err)
}
