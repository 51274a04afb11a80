package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/models"
)

func (s *HTTPServer) callerID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(s.cfg.IdentityHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) requireCaller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := s.callerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, s.cfg.IdentityHeader+" header is required")
	}
	return id, ok
}

func pathID(path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// pageParams reads from/size with defaults; ok=false means a malformed value.
func pageParams(r *http.Request) (from, size int, ok bool) {
	from, size = 0, models.DefaultPageSize
	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		from = v
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		size = v
	}
	return from, size, true
}

// --- users ---

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var user models.User
		if !decodeBody(w, r, &user) {
			return
		}
		created, err := s.users.Create(r.Context(), &user)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	case http.MethodGet:
		users, err := s.users.GetAll(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/users/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var patch models.UserPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		user, err := s.users.Update(r.Context(), id, patch)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := s.users.Delete(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- items ---

func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var item models.Item
		if !decodeBody(w, r, &item) {
			return
		}
		created, err := s.items.Create(r.Context(), callerID, &item)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	case http.MethodGet:
		views, err := s.items.ListByOwner(r.Context(), callerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	items, err := s.items.Search(r.Context(), callerID, r.URL.Query().Get("text"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/items/")

	if itemID, found := strings.CutSuffix(rest, "/comment"); found {
		s.handleItemComment(w, r, itemID)
		return
	}

	id, ok := pathID(r.URL.Path, "/items/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.items.GetByID(r.Context(), id, callerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodPatch:
		var patch models.ItemPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := s.items.Update(r.Context(), id, callerID, patch)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleItemComment(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	itemID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || itemID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	comment, err := s.items.AddComment(r.Context(), itemID, callerID, body.Text)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// --- bookings ---

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			ItemID int64     `json:"itemId"`
			Start  time.Time `json:"start"`
			End    time.Time `json:"end"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		booking, err := s.bookings.Create(r.Context(), callerID, body.ItemID, body.Start, body.End)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodGet:
		from, size, ok := pageParams(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid paging parameters")
			return
		}
		bookings, err := s.bookings.ListForBooker(r.Context(), callerID, r.URL.Query().Get("state"), from, size)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookings)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBookingsOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	from, size, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid paging parameters")
		return
	}

	bookings, err := s.bookings.ListForOwner(r.Context(), callerID, r.URL.Query().Get("state"), from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/bookings/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.bookings.GetByID(r.Context(), id, callerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodPatch:
		approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "approved query parameter is required")
			return
		}
		booking, err := s.bookings.Approve(r.Context(), id, callerID, approved)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- requests ---

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			Description string `json:"description"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		request, err := s.requests.Create(r.Context(), callerID, body.Description)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	case http.MethodGet:
		views, err := s.requests.ListOwn(r.Context(), callerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRequestsAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	from, size, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid paging parameters")
		return
	}

	views, err := s.requests.ListFromOthers(r.Context(), callerID, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/requests/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	view, err := s.requests.GetByID(r.Context(), id, callerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- admin ---

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "users" {
		path, err := s.exporter.ExportUsers(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"file": path})
		return
	}

	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
		return
	}

	path, err := s.exporter.ExportSchedule(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}
