package mailer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/mailer"

	"go.uber.org/zap"
)

func TestHTTPMailer_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "sent"})
	}))
	defer srv.Close()

	m := mailer.NewHTTPMailer(srv.URL, 5*time.Second, zap.NewNop())
	if err := m.Send(context.Background(), "a@b.c", "Hello", "<p>hi</p>", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["to"] != "a@b.c" || got["subject"] != "Hello" || got["html"] != "<p>hi</p>" || got["text"] != "hi" {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestHTTPMailer_Send_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "smtp down"})
	}))
	defer srv.Close()

	m := mailer.NewHTTPMailer(srv.URL, 5*time.Second, zap.NewNop())
	if err := m.Send(context.Background(), "a@b.c", "Hello", "", "hi"); err == nil {
		t.Fatal("expected error on rejected message")
	}
}

func TestHTTPMailer_Send_Unreachable(t *testing.T) {
	m := mailer.NewHTTPMailer("http://127.0.0.1:1", time.Second, zap.NewNop())
	if err := m.Send(context.Background(), "a@b.c", "Hello", "", "hi"); err == nil {
		t.Fatal("expected transport error")
	}
}
