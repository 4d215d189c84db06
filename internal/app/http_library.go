package app

import (
	"net/http"
	"strings"

	"cusp/api/internal/store"
	"cusp/api/internal/validate"
)

func (s *HTTPServer) routeDocuments(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListDocuments(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list documents", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"documents": items})
			return
		case http.MethodPost:
			session, ok := s.requireSession(w, r)
			if !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			title := r.FormValue("title")
			if strings.TrimSpace(title) == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required", nil)
				return
			}
			headers := r.MultipartForm.File["files"]
			if len(headers) == 0 {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "at least one file is required", nil)
				return
			}

			// One row per uploaded file, all sharing the form metadata.
			created := make([]store.Document, 0, len(headers))
			for _, header := range headers {
				file, err := header.Open()
				if err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", "unreadable file part", nil)
					return
				}
				url, err := s.storeFile(r.Context(), file, header)
				file.Close()
				if err != nil {
					writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store file", nil)
					return
				}
				doc := store.Document{
					Title:       title,
					Description: r.FormValue("description"),
					FilePath:    url,
					FileType:    header.Header.Get("Content-Type"),
					UserID:      session.UserID,
				}
				id, err := s.service.store.InsertDocument(r.Context(), doc)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				saved, err := s.service.store.GetDocument(r.Context(), id)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				created = append(created, saved)
			}
			writeJSON(w, http.StatusCreated, map[string]any{"documents": created})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		documentID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			doc, err := s.service.store.GetDocument(r.Context(), documentID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": doc})
			return
		case http.MethodPatch:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			var body struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			current, err := s.service.store.GetDocument(r.Context(), documentID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			if body.Title == "" {
				body.Title = current.Title
			}
			if body.Description == "" {
				body.Description = current.Description
			}
			current.Title = body.Title
			current.Description = body.Description
			if err := s.service.store.UpdateDocument(r.Context(), current); err != nil {
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
			if err := s.service.store.SoftDeleteDocument(r.Context(), documentID); err != nil {
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

func (s *HTTPServer) routeDirectory(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListDirectory(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list directory", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"directory": items})
			return
		case http.MethodPost:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			photoURL, err := s.saveUpload(r, "p_photo")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store contact photo", nil)
				return
			}
			if photoURL == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "p_photo is required", nil)
				return
			}
			entry := store.DirectoryEntry{
				PlaceName:    r.FormValue("place_name"),
				Location:     r.FormValue("location"),
				LocationURL:  r.FormValue("location_url"),
				ContactName:  r.FormValue("p_name"),
				ContactEmail: r.FormValue("p_email"),
				ContactPhoto: photoURL,
			}
			if strings.TrimSpace(entry.PlaceName) == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "place_name is required", nil)
				return
			}
			id, err := s.service.store.InsertDirectoryEntry(r.Context(), entry)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			saved, err := s.service.store.GetDirectoryEntry(r.Context(), id)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"entry": saved})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		entryID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			entry, err := s.service.store.GetDirectoryEntry(r.Context(), entryID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
			return
		case http.MethodPatch:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			current, err := s.service.store.GetDirectoryEntry(r.Context(), entryID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			photoURL, err := s.saveUpload(r, "p_photo")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store contact photo", nil)
				return
			}
			if photoURL != "" {
				current.ContactPhoto = photoURL
			}
			if v := r.FormValue("place_name"); v != "" {
				current.PlaceName = v
			}
			if v := r.FormValue("location"); v != "" {
				current.Location = v
			}
			if v := r.FormValue("location_url"); v != "" {
				current.LocationURL = v
			}
			if v := r.FormValue("p_name"); v != "" {
				current.ContactName = v
			}
			if v := r.FormValue("p_email"); v != "" {
				current.ContactEmail = v
			}
			if err := s.service.store.UpdateDirectoryEntry(r.Context(), current); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"entry": current})
			return
		case http.MethodDelete:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := s.service.store.SoftDeleteDirectoryEntry(r.Context(), entryID); err != nil {
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

func (s *HTTPServer) routeTools(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListTools(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list tools", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tools": items})
			return
		case http.MethodPost:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			imageURL, err := s.saveUpload(r, "img_url")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store tool image", nil)
				return
			}
			tool := store.Tool{
				Title:       r.FormValue("title"),
				Description: r.FormValue("description"),
				Link:        r.FormValue("link"),
				ImageURL:    imageURL,
			}
			if strings.TrimSpace(tool.Title) == "" {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required", nil)
				return
			}
			id, err := s.service.store.InsertTool(r.Context(), tool)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			saved, err := s.service.store.GetTool(r.Context(), id)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"tool": saved})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 {
		toolID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			tool, err := s.service.store.GetTool(r.Context(), toolID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tool": tool})
			return
		case http.MethodPatch:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
				return
			}
			current, err := s.service.store.GetTool(r.Context(), toolID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			imageURL, err := s.saveUpload(r, "img_url")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Could not store tool image", nil)
				return
			}
			if imageURL != "" {
				current.ImageURL = imageURL
			}
			if v := r.FormValue("title"); v != "" {
				current.Title = v
			}
			if v := r.FormValue("description"); v != "" {
				current.Description = v
			}
			if v := r.FormValue("link"); v != "" {
				current.Link = v
			}
			if err := s.service.store.UpdateTool(r.Context(), current); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"tool": current})
			return
		case http.MethodDelete:
			if _, ok := s.requireSession(w, r); !ok {
				return
			}
			if err := s.service.store.SoftDeleteTool(r.Context(), toolID); err != nil {
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

// valuationPayload restores the two multi-select fields to arrays for
// API responses; they live in the row as comma-separated strings.
func valuationPayload(v store.ValuationEntry) map[string]any {
	return map[string]any{
		"id":                  v.ID,
		"name":                v.Name,
		"email":               v.Email,
		"phone":               v.Phone,
		"siteSize":            v.SiteSize,
		"dentalChairs":        v.DentalChairs,
		"practiceType":        v.PracticeType,
		"interiorFinish":      v.InteriorFinish,
		"locationType":        v.LocationType,
		"locationOther":       v.LocationOther,
		"unitCondition":       v.UnitCondition,
		"equipmentCondition":  v.EquipmentCondition,
		"equipmentNeeded":     splitCSV(v.EquipmentNeeded),
		"specialistEquipment": splitCSV(v.SpecialistEquipment),
	}
}

func splitCSV(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *HTTPServer) routeCalculator(w http.ResponseWriter, r *http.Request) {
	rest := splitPath(r.URL.Path)[2:]

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.store.ListValuations(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list valuations", nil)
				return
			}
			payload := make([]map[string]any, 0, len(items))
			for _, v := range items {
				payload = append(payload, valuationPayload(v))
			}
			writeJSON(w, http.StatusOK, map[string]any{"valuations": payload})
			return
		case http.MethodPost:
			var body struct {
				Name                string   `json:"name" validate:"required"`
				Email               string   `json:"email" validate:"required"`
				Phone               string   `json:"phone"`
				SiteSize            string   `json:"siteSize"`
				DentalChairs        string   `json:"dentalChairs"`
				PracticeType        string   `json:"practiceType"`
				InteriorFinish      string   `json:"interiorFinish"`
				LocationType        string   `json:"locationType"`
				LocationOther       string   `json:"locationOther"`
				UnitCondition       string   `json:"unitCondition"`
				EquipmentCondition  string   `json:"equipmentCondition"`
				EquipmentNeeded     []string `json:"equipmentNeeded" validate:"min=1"`
				SpecialistEquipment []string `json:"specialistEquipment" validate:"min=1"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := validate.Struct(&body); err != nil {
				writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "name, email and at least one selection per equipment list are required", nil)
				return
			}
			entry := store.ValuationEntry{
				Name:                body.Name,
				Email:               body.Email,
				Phone:               body.Phone,
				SiteSize:            body.SiteSize,
				DentalChairs:        body.DentalChairs,
				PracticeType:        body.PracticeType,
				InteriorFinish:      body.InteriorFinish,
				LocationType:        body.LocationType,
				LocationOther:       body.LocationOther,
				UnitCondition:       body.UnitCondition,
				EquipmentCondition:  body.EquipmentCondition,
				EquipmentNeeded:     strings.Join(body.EquipmentNeeded, ","),
				SpecialistEquipment: strings.Join(body.SpecialistEquipment, ","),
			}
			id, err := s.service.store.InsertValuation(r.Context(), entry)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			entry.ID = id
			writeJSON(w, http.StatusCreated, map[string]any{"valuation": valuationPayload(entry)})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(rest) == 1 && r.Method == http.MethodGet {
		entryID, ok := pathID(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		entry, err := s.service.store.GetValuation(r.Context(), entryID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valuation": valuationPayload(entry)})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
