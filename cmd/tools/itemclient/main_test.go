package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/item-service/backend/internal/handler"
	"github.com/zhouzirui/item-service/backend/internal/model/item"
	"github.com/zhouzirui/item-service/backend/internal/service/feed"
)

func TestClientRoundTrip(t *testing.T) {
	hub := feed.NewHub(1, nil)
	defer hub.Close()
	router, err := handler.NewRouter(item.NewMemoryStore(nil), hub, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	defer srv.Close()

	c := &client{base: srv.URL, http: srv.Client()}
	ctx := context.Background()

	created, err := c.addItem(ctx, "item1", "item1 description")
	require.NoError(t, err)
	assert.Equal(t, item.Item{ID: 0, Name: "item1", Description: "item1 description"}, created)

	items, err := c.listItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []item.Item{created}, items)

	removed, err := c.deleteItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, removed)

	_, err = c.deleteItem(ctx, created.ID)
	assert.ErrorContains(t, err, "status 404")
}

func TestClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &client{base: srv.URL, http: srv.Client()}

	_, err := c.listItems(context.Background())
	assert.ErrorContains(t, err, "status 500: boom")
}
