package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchSendsKeyAndQuery(t *testing.T) {
	var captured searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			Query:   captured.Query,
			Results: []Result{{Title: "Hit", URL: "https://hit.example", Score: 0.9}},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(nil, "tv-key", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.baseURL = server.URL

	resp, err := client.Search(context.Background(), "best climbs near Girona")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if captured.APIKey != "tv-key" || captured.Query != "best climbs near Girona" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if captured.MaxResults != 5 {
		t.Fatalf("expected max_results 5, got %d", captured.MaxResults)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Hit" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	client, err := NewClient(nil, "tv-key", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Fatal("expected an error for an empty query")
	}
}
