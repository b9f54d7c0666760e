package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondError(rec, http.StatusNotFound, "item not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"item not found"}`, rec.Body.String())
}

func TestRespondHTML(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondHTML(rec, http.StatusOK, "<p>hi</p>")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>hi</p>", rec.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	err := SendSSEEvent(rec, rec, "item.created", map[string]int{"id": 1})
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: item.created\ndata: {\"id\":1}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendSSEEventMarshalError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := SendSSEEvent(rec, rec, "bad", make(chan int))

	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}
