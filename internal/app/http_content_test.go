package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cusp/api/internal/chat"
	"cusp/api/internal/store"
)

func TestCreatePostRequiresAuth(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"title":"t","content":"c"}`))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestCreatePostIndexesForSearch(t *testing.T) {
	fs := &fakeStore{
		insertPostFn: func(_ context.Context, p store.Post) (int64, error) {
			return 11, nil
		},
		getPostFn: func(_ context.Context, id int64) (store.Post, error) {
			return store.Post{ID: id, Title: "t", Content: "c", UserID: 3}, nil
		},
	}
	svc := newTestService(fs)
	hub := chat.NewHub(svc.cipher, &ChatStore{store: fs}, svc)
	server := NewHTTPServer(svc, hub, "", "*")

	req := httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"title":"t","content":"c"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	idx := svc.search.(*fakeSearch)
	if len(idx.indexed) != 1 || idx.indexed[0].ID != 11 {
		t.Fatalf("indexed = %+v, want one record with ID 11", idx.indexed)
	}
}

func TestCreatePostRejectsEmptyTitle(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"title":"  ","content":"c"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["code"] != "MISSING_FIELDS" {
		t.Fatalf("code = %v, want MISSING_FIELDS", payload["code"])
	}
}

func TestGetPostNotFound(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/42", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["code"] != "NOT_FOUND" {
		t.Fatalf("code = %v, want NOT_FOUND", payload["code"])
	}
}

func TestAddCommentReturnsFreshCount(t *testing.T) {
	fs := &fakeStore{
		getPostFn: func(_ context.Context, id int64) (store.Post, error) {
			return store.Post{ID: id}, nil
		},
		insertCommentFn: func(_ context.Context, postID, userID int64, text string) (int64, error) {
			if postID != 9 || userID != 3 || text != "nice" {
				t.Fatalf("InsertComment(%d, %d, %q)", postID, userID, text)
			}
			return 5, nil
		},
		refreshCommentCountFn: func(_ context.Context, postID int64) (int, error) {
			return 3, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/comment",
		strings.NewReader(`{"post_id":9,"comment_text":"nice"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["id"] != float64(5) || payload["comments"] != float64(3) {
		t.Fatalf("payload = %v, want id 5 and comments 3", payload)
	}
}

func TestAddCommentOnMissingPost(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/comment",
		strings.NewReader(`{"post_id":9,"comment_text":"nice"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteCommentRefreshesCount(t *testing.T) {
	deleted := false
	fs := &fakeStore{
		getCommentFn: func(_ context.Context, id int64) ([]store.Comment, error) {
			return []store.Comment{{ID: id, PostID: 9}}, nil
		},
		softDeleteCommentFn: func(_ context.Context, id int64) error {
			deleted = true
			return nil
		},
		refreshCommentCountFn: func(_ context.Context, postID int64) (int, error) {
			return 2, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodDelete, "/api/comment/5", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !deleted {
		t.Fatal("comment was not soft deleted")
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["comments"] != float64(2) {
		t.Fatalf("comments = %v, want 2", payload["comments"])
	}
}

func TestLikeStatusReturnsCounter(t *testing.T) {
	fs := &fakeStore{
		getPostFn: func(_ context.Context, id int64) (store.Post, error) {
			return store.Post{ID: id}, nil
		},
		upsertLikeFn: func(_ context.Context, postID, userID int64, liked bool) (int, error) {
			if !liked {
				t.Fatal("liked = false, want true")
			}
			return 4, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPatch, "/api/like-status",
		strings.NewReader(`{"post_id":9,"liked":true}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["likes"] != float64(4) {
		t.Fatalf("likes = %v, want 4", payload["likes"])
	}
}

func TestCreateTagRejectsDuplicate(t *testing.T) {
	fs := &fakeStore{
		getTagByNameFn: func(_ context.Context, name string) (store.Tag, error) {
			if name == "golang" {
				return store.Tag{ID: 1, Name: name}, nil
			}
			return store.Tag{}, sql.ErrNoRows
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/tag",
		strings.NewReader(`{"name":"golang"}`))
	req.Header.Set("Authorization", "Bearer "+testToken(t, 3))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["code"] != "TAG_EXISTS" {
		t.Fatalf("code = %v, want TAG_EXISTS", payload["code"])
	}
}

func TestSearchEndpointValidatesLimit(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=go&limit=abc", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestSearchEndpointReturnsEnvelope(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=go", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if _, ok := payload["results"]; !ok {
		t.Fatal("results missing from search response")
	}
}
