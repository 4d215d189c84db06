package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cusp/api/internal/store"
)

func TestChatSendRequiresAuth(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send",
		strings.NewReader(`{"to":2,"message":"hi"}`))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestChatSendPersistsCiphertext(t *testing.T) {
	var stored store.ChatMessage
	fs := &fakeStore{
		getUserFn: func(_ context.Context, id int64) (store.User, error) {
			return store.User{ID: id, Username: "bea"}, nil
		},
		insertMessageFn: func(_ context.Context, m store.ChatMessage) (int64, error) {
			stored = m
			return 1, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send",
		strings.NewReader(`{"to":2,"message":"see you at noon"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 1))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	// Nobody is connected over the socket, so delivery is best effort.
	if payload["delivered"] != false {
		t.Fatalf("delivered = %v, want false", payload["delivered"])
	}
	if stored.SenderID != 1 || stored.ReceiverID != 2 {
		t.Fatalf("stored sender/receiver = %d/%d, want 1/2", stored.SenderID, stored.ReceiverID)
	}
	if stored.Message == "see you at noon" {
		t.Fatal("message stored as plaintext")
	}
	if got := testCipher().Decode(stored.Message); got != "see you at noon" {
		t.Fatalf("Decode(stored) = %q, want original text", got)
	}
}

func TestChatSendUnknownRecipient(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send",
		strings.NewReader(`{"to":99,"message":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 1))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestChatSendRejectsEmptyMessage(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat/send",
		strings.NewReader(`{"to":2,"message":"  "}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 1))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestChatHistoryDecodesMessages(t *testing.T) {
	cipher := testCipher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fs := &fakeStore{
		listConversationFn: func(_ context.Context, a, b int64) ([]store.ChatMessage, error) {
			if a != 1 || b != 2 {
				t.Fatalf("ListConversation(%d, %d), want (1, 2)", a, b)
			}
			return []store.ChatMessage{
				{ID: 1, SenderID: 1, ReceiverID: 2, Message: cipher.Encode("hello"), Time: ts},
				{ID: 2, SenderID: 2, ReceiverID: 1, Message: "plain legacy row", Time: ts},
			}, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/2", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, 1))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var payload struct {
		Messages []chatMessagePayload `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(payload.Messages))
	}
	if payload.Messages[0].Message != "hello" {
		t.Fatalf("first message = %q, want decoded plaintext", payload.Messages[0].Message)
	}
	if payload.Messages[1].Message != "plain legacy row" {
		t.Fatalf("legacy message = %q, want unchanged", payload.Messages[1].Message)
	}
}

func TestChatHistoryRejectsBadUserID(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/abc", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, 1))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
