package app

import (
	"net/http"
	"strconv"
	"strings"

	"cusp/api/internal/search"
)

func (s *HTTPServer) routePosts(w http.ResponseWriter, r *http.Request, kind string, rest []string) {
	if kind == "search" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		offset := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			offset = parsed
		}
		payload := s.service.search.Search(search.Query{
			Text:   q,
			TagID:  strings.TrimSpace(r.URL.Query().Get("tag_id")),
			Limit:  limit,
			Offset: offset,
		})
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListPosts(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list posts", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"posts": items})
			return
		case http.MethodPost:
			session, ok := s.requireSession(w, r)
			if !ok {
				return
			}
			var body struct {
				Title   string `json:"title"`
				Content string `json:"content"`
				TagID   string `json:"tag_id"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			post, err := s.service.CreatePost(r.Context(), session, body.Title, body.Content, body.TagID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"post": post})
			return
		}
	}

	if len(rest) == 1 && r.Method == http.MethodGet {
		postID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		post, err := s.service.store.GetPost(r.Context(), postID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"post": post})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) routeComments(w http.ResponseWriter, r *http.Request, kind string, rest []string) {
	switch kind {
	case "comment":
		s.routeComment(w, r, rest)
	case "reply":
		s.routeReply(w, r, rest)
	case "commentreply":
		if len(rest) == 1 && r.Method == http.MethodGet {
			commentID, ok := pathID(rest[0])
			if !ok {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
				return
			}
			items, err := s.service.store.ListReplies(r.Context(), commentID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list replies", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"replies": items})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	case "like-status":
		if r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		var body struct {
			PostID int64 `json:"post_id"`
			Liked  bool  `json:"liked"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		total, err := s.service.SetLikeStatus(r.Context(), session, body.PostID, body.Liked)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"post_id": body.PostID, "likes": total})
	}
}

func (s *HTTPServer) routeComment(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListComments(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list comments", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"comments": items})
			return
		case http.MethodPost:
			session, ok := s.requireSession(w, r)
			if !ok {
				return
			}
			var body struct {
				PostID      int64  `json:"post_id"`
				CommentText string `json:"comment_text"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			id, total, err := s.service.AddComment(r.Context(), session, body.PostID, body.CommentText)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": id, "post_id": body.PostID, "comments": total})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 2 && rest[0] == "post-id" && r.Method == http.MethodGet {
		postID, ok := pathID(rest[1])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		items, err := s.service.store.ListCommentsByPost(r.Context(), postID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list comments", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comments": items})
		return
	}

	if len(rest) == 1 {
		commentID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.GetComment(r.Context(), commentID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			if len(items) == 0 {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"comment": items[0]})
			return
		case http.MethodDelete:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			items, err := s.service.store.GetComment(r.Context(), commentID)
			if err != nil || len(items) == 0 {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
				return
			}
			if err := s.service.store.SoftDeleteComment(r.Context(), commentID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			total, err := s.service.store.RefreshCommentCount(r.Context(), items[0].PostID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not refresh comment count", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "post_id": items[0].PostID, "comments": total})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) routeReply(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 && r.Method == http.MethodPost {
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		var body struct {
			CommentID int64  `json:"comment_id"`
			PostID    int64  `json:"post_id"`
			ReplyText string `json:"reply_text"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		reply, err := s.service.AddReply(r.Context(), session, body.CommentID, body.PostID, body.ReplyText)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"reply": reply})
		return
	}

	if len(rest) == 1 && r.Method == http.MethodDelete {
		if _, ok := s.requireSession(w, r); !ok {
			return
		}
		replyID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		if err := s.service.store.SoftDeleteReply(r.Context(), replyID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) routeTags(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListTags(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list tags", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tags": items})
			return
		case http.MethodPost:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			var body struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			id, err := s.service.CreateTag(r.Context(), body.Name, body.Description)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": body.Name})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		tagID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			tag, err := s.service.store.GetTag(r.Context(), tagID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tag": tag})
			return
		case http.MethodPatch:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			var body struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.store.UpdateTag(r.Context(), tagID, body.Name, body.Description); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case http.MethodDelete:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := s.service.store.SoftDeleteTag(r.Context(), tagID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
