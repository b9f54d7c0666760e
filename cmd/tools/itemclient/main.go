package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/item-service/backend/internal/config"
	"github.com/zhouzirui/item-service/backend/internal/model/item"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env loaded, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "list", "mode: add, list or delete")
	baseURL := flag.String("url", "", "service base URL, defaults to the configured listen address")
	name := flag.String("name", "", "item name (add)")
	description := flag.String("description", "", "item description (add)")
	id := flag.Uint64("id", 0, "item id (delete)")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")

	flag.Parse()

	base := *baseURL
	if base == "" {
		base = "http://" + cfg.Server.Addr
		if strings.HasPrefix(cfg.Server.Addr, ":") {
			base = "http://127.0.0.1" + cfg.Server.Addr
		}
	}
	base = strings.TrimRight(base, "/")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := &client{base: base, http: http.DefaultClient}

	switch *mode {
	case "add":
		created, err := c.addItem(ctx, *name, *description)
		if err != nil {
			log.Fatalf("add_item failed: %v", err)
		}
		log.Printf("created item id=%d name=%q", created.ID, created.Name)
	case "list":
		items, err := c.listItems(ctx)
		if err != nil {
			log.Fatalf("list items failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			log.Fatalf("print items failed: %v", err)
		}
	case "delete":
		removed, err := c.deleteItem(ctx, *id)
		if err != nil {
			log.Fatalf("delete item failed: %v", err)
		}
		log.Printf("deleted item id=%d name=%q", removed.ID, removed.Name)
	default:
		flag.Usage()
		log.Fatal("use -mode=add, -mode=list or -mode=delete")
	}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) addItem(ctx context.Context, name, description string) (item.Item, error) {
	body, err := json.Marshal(map[string]string{"name": name, "description": description})
	if err != nil {
		return item.Item{}, err
	}
	var created item.Item
	err = c.do(ctx, http.MethodPost, "/api/add_item", bytes.NewReader(body), &created)
	return created, err
}

func (c *client) listItems(ctx context.Context) ([]item.Item, error) {
	var items []item.Item
	err := c.do(ctx, http.MethodGet, "/api/items", nil, &items)
	return items, err
}

func (c *client) deleteItem(ctx context.Context, id uint64) (item.Item, error) {
	var removed item.Item
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/items/%d", id), nil, &removed)
	return removed, err
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
