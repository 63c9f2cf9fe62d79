package mailsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearch(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gmail/v1/users/me/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"messages":[{"id":"m1"},{"id":"m2"}]}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	ids, err := c.Search(context.Background(), "tok-123", "from:ups.com newer_than:30d", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "from:ups.com newer_than:30d" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestGetFlattensMessage(t *testing.T) {
	body := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(
		[]byte("Your package 1Z999AA10123456784 is arriving March 4"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gmail/v1/users/me/messages/m1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{
			"id": "m1",
			"internalDate": "1767225600000",
			"payload": {
				"headers": [
					{"name": "Subject", "value": "Your order has shipped"},
					{"name": "From", "value": "UPS <noreply@ups.com>"}
				],
				"body": {"data": ""},
				"parts": [
					{"mimeType": "text/html", "body": {"data": "aGlkZGVu"}},
					{"mimeType": "text/plain", "body": {"data": %q}}
				]
			}
		}`, body)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	msg, err := c.Get(context.Background(), "tok", "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if msg.Subject != "Your order has shipped" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.From != "UPS <noreply@ups.com>" {
		t.Errorf("From = %q", msg.From)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !msg.Received.Equal(want) {
		t.Errorf("Received = %v, want %v", msg.Received, want)
	}
	if msg.Body != "Your package 1Z999AA10123456784 is arriving March 4" {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestGetAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Get(context.Background(), "expired-token", "m1"); err == nil {
		t.Fatal("expected error on 401 response")
	}
}
