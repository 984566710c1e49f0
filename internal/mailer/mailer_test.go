package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSendInviteUnconfiguredIsNoop(t *testing.T) {
	c := New(Config{}, zap.NewNop())
	if err := c.SendInvite(context.Background(), "a@b.c", "Review", "tok", "viewer"); err != nil {
		t.Fatalf("SendInvite without backend: %v", err)
	}
}

func TestSendInvitePostsToBackend(t *testing.T) {
	var got txRequest
	var gotPath, gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "api", Password: "key", TemplateID: 7}, zap.NewNop())
	err := c.SendInvite(context.Background(), "invitee@example.com", "Launch video", "tok-123", "editor")
	if err != nil {
		t.Fatalf("SendInvite: %v", err)
	}

	if gotPath != "/api/tx" {
		t.Errorf("path = %q, want /api/tx", gotPath)
	}
	if gotUser != "api" || gotPass != "key" {
		t.Errorf("basic auth = %q/%q, want api/key", gotUser, gotPass)
	}
	if got.SubscriberEmail != "invitee@example.com" || got.TemplateID != 7 {
		t.Errorf("request = %+v", got)
	}
	if got.Data["inviteToken"] != "tok-123" || got.Data["role"] != "editor" {
		t.Errorf("data = %+v", got.Data)
	}
}

func TestSendInviteBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	if err := c.SendInvite(context.Background(), "a@b.c", "Review", "tok", "viewer"); err == nil {
		t.Fatal("SendInvite swallowed a backend failure")
	}
}
