package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Maquininha Smart  </title>
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <h1>Card   machine</h1>
  <noscript>Enable JavaScript</noscript>
  <p>Our fee is
     2% per sale.</p>
</body>
</html>`

func TestFetchExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	page, err := New(time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.Title != "Maquininha Smart" {
		t.Errorf("title = %q", page.Title)
	}
	if strings.Contains(page.Content, "console.log") {
		t.Error("script content leaked into extracted text")
	}
	if strings.Contains(page.Content, "color: red") {
		t.Error("style content leaked into extracted text")
	}
	if strings.Contains(page.Content, "Enable JavaScript") {
		t.Error("noscript content leaked into extracted text")
	}
	if !strings.Contains(page.Content, "Card machine") {
		t.Errorf("whitespace not collapsed: %q", page.Content)
	}
	if !strings.Contains(page.Content, "Our fee is 2% per sale.") {
		t.Errorf("body text missing: %q", page.Content)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := New(time.Second).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchUnreachable(t *testing.T) {
	if _, err := New(100 * time.Millisecond).Fetch(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error for unreachable host")
	}
}
