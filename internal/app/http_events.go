package app

import (
	"net/http"
	"strings"

	"cusp/api/internal/store"
)

// eventFromForm builds the event row from a multipart form. Tags come
// in as a comma-separated list.
func eventFromForm(r *http.Request, imageURL string) store.Event {
	tags := make([]string, 0)
	for _, t := range strings.Split(r.FormValue("event_tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return store.Event{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
		LocationURL: r.FormValue("location_url"),
		EventLink:   r.FormValue("event_link"),
		EventImage:  imageURL,
		Tags:        tags,
	}
}

func (s *HTTPServer) routeEvents(w http.ResponseWriter, r *http.Request, kind string, rest []string) {
	if kind == "register-event" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		var body struct {
			EventID int64 `json:"event_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body.EventID == 0 {
			writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "event_id is required", nil)
			return
		}
		if _, err := s.service.store.GetEvent(r.Context(), body.EventID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		if err := s.service.store.RegisterForEvent(r.Context(), body.EventID, session.UserID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "event_id": body.EventID})
		return
	}

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListEvents(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list events", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"events": items})
			return
		case http.MethodPost:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			imageURL, err := s.saveUpload(r, "event_image")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store event image", nil)
				return
			}
			event := eventFromForm(r, imageURL)
			if strings.TrimSpace(event.Title) == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required", nil)
				return
			}
			id, err := s.service.store.InsertEvent(r.Context(), event)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			created, err := s.service.store.GetEvent(r.Context(), id)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"event": created})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		eventID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			event, err := s.service.store.GetEvent(r.Context(), eventID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"event": event})
			return
		case http.MethodPatch:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			current, err := s.service.store.GetEvent(r.Context(), eventID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			imageURL, err := s.saveUpload(r, "event_image")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store event image", nil)
				return
			}
			if imageURL == "" {
				imageURL = current.EventImage
			}
			event := eventFromForm(r, imageURL)
			event.ID = eventID
			if event.Title == "" {
				event.Title = current.Title
			}
			if event.Description == "" {
				event.Description = current.Description
			}
			if event.Date == "" {
				event.Date = current.Date
			}
			if event.Time == "" {
				event.Time = current.Time
			}
			if event.Location == "" {
				event.Location = current.Location
			}
			if event.LocationURL == "" {
				event.LocationURL = current.LocationURL
			}
			if event.EventLink == "" {
				event.EventLink = current.EventLink
			}
			if len(event.Tags) == 0 {
				event.Tags = current.Tags
			}
			if err := s.service.store.UpdateEvent(r.Context(), event); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			updated, err := s.service.store.GetEvent(r.Context(), eventID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"event": updated})
			return
		case http.MethodDelete:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := s.service.store.SoftDeleteEvent(r.Context(), eventID); err != nil {
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

func (s *HTTPServer) routeCourses(w http.ResponseWriter, r *http.Request, kind string, rest []string) {
	if kind == "lession" {
		s.routeLessons(w, r, rest)
		return
	}

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListCourses(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list courses", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"courses": items})
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
			if strings.TrimSpace(body.Name) == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "name is required", nil)
				return
			}
			id, err := s.service.store.InsertCourse(r.Context(), store.Course{Name: body.Name, Description: body.Description})
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
		courseID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			course, err := s.service.store.GetCourse(r.Context(), courseID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			lessons, err := s.service.store.ListLessons(r.Context(), courseID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list lessons", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"course": course, "lessons": lessons})
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
			current, err := s.service.store.GetCourse(r.Context(), courseID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			if body.Name == "" {
				body.Name = current.Name
			}
			if body.Description == "" {
				body.Description = current.Description
			}
			if err := s.service.store.UpdateCourse(r.Context(), store.Course{ID: courseID, Name: body.Name, Description: body.Description}); err != nil {
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
			if err := s.service.store.SoftDeleteCourse(r.Context(), courseID); err != nil {
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

func (s *HTTPServer) routeLessons(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			courseID, ok := pathID(strings.TrimSpace(r.URL.Query().Get("course_id")))
			if !ok {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "course_id is required", nil)
				return
			}
			items, err := s.service.store.ListLessons(r.Context(), courseID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list lessons", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"lessons": items})
			return
		case http.MethodPost:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			var body struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				CourseID    int64  `json:"course_id"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if strings.TrimSpace(body.Name) == "" || body.CourseID == 0 {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "name and course_id are required", nil)
				return
			}
			if _, err := s.service.store.GetCourse(r.Context(), body.CourseID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			id, err := s.service.store.InsertLesson(r.Context(), store.Lesson{
				Name:        body.Name,
				Description: body.Description,
				CourseID:    body.CourseID,
			})
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": id, "course_id": body.CourseID})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		lessonID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			lesson, err := s.service.store.GetLesson(r.Context(), lessonID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"lesson": lesson})
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
			current, err := s.service.store.GetLesson(r.Context(), lessonID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			if body.Name == "" {
				body.Name = current.Name
			}
			if body.Description == "" {
				body.Description = current.Description
			}
			if err := s.service.store.UpdateLesson(r.Context(), store.Lesson{ID: lessonID, Name: body.Name, Description: body.Description}); err != nil {
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
			if err := s.service.store.SoftDeleteLesson(r.Context(), lessonID); err != nil {
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
