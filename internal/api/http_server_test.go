package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityHeader = "X-Sharer-User-Id"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.HTTPConfig{Port: 8080, IdentityHeader: identityHeader}

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, nil, nil, &logger)
	bookings := service.NewBookingService(db, nil, nil, nil, &logger)
	requests := service.NewRequestService(db, &logger)

	srv := NewHTTPServer(cfg, users, items, bookings, requests, nil, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, userID int64, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if userID > 0 {
		req.Header.Set(identityHeader, strconv.FormatInt(userID, 10))
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func createUser(t *testing.T, ts *httptest.Server, name, email string) models.User {
	t.Helper()
	resp, data := doRequest(t, ts, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var user models.User
	require.NoError(t, json.Unmarshal(data, &user))
	return user
}

func createItem(t *testing.T, ts *httptest.Server, ownerID int64, name string, available bool) models.Item {
	t.Helper()
	resp, data := doRequest(t, ts, http.MethodPost, "/items", ownerID, map[string]any{
		"name": name, "description": name + " description", "available": available,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var item models.Item
	require.NoError(t, json.Unmarshal(data, &item))
	return item
}

func createBooking(t *testing.T, ts *httptest.Server, bookerID, itemID int64, start, end time.Time) models.Booking {
	t.Helper()
	resp, data := doRequest(t, ts, http.MethodPost, "/bookings", bookerID, map[string]any{
		"itemId": itemID, "start": start, "end": end,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var booking models.Booking
	require.NoError(t, json.Unmarshal(data, &booking))
	return booking
}

func TestUserEndpoints(t *testing.T) {
	ts := newTestServer(t)

	user := createUser(t, ts, "Alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	t.Run("DuplicateEmailConflict", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPost, "/users", 0, map[string]string{"name": "Other", "email": "alice@example.com"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("GetByID", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got models.User
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "Alice", got.Name)
	})

	t.Run("Patch", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/users/%d", user.ID), 0, map[string]string{"name": "Alicia"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got models.User
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "Alicia", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("GetMissing", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodGet, "/users/9999", 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Delete", func(t *testing.T) {
		victim := createUser(t, ts, "Bob", "bob-del@example.com")
		resp, _ := doRequest(t, ts, http.MethodDelete, fmt.Sprintf("/users/%d", victim.ID), 0, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/users/%d", victim.ID), 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestItemEndpoints(t *testing.T) {
	ts := newTestServer(t)

	owner := createUser(t, ts, "Owner", "owner@example.com")
	other := createUser(t, ts, "Other", "other@example.com")
	item := createItem(t, ts, owner.ID, "Drill", true)

	t.Run("MissingIdentityHeader", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodGet, "/items", 0, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("GetView", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), other.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var view models.ItemView
		require.NoError(t, json.Unmarshal(data, &view))
		assert.Equal(t, "Drill", view.Name)
		assert.NotNil(t, view.Comments)
	})

	t.Run("PatchByNonOwnerForbidden", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), other.ID, map[string]any{"available": false})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Search", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, "/items/search?text=dri", other.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []models.Item
		require.NoError(t, json.Unmarshal(data, &items))
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)
	})

	t.Run("SearchBlankReturnsEmpty", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, "/items/search?text=", other.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []models.Item
		require.NoError(t, json.Unmarshal(data, &items))
		assert.Empty(t, items)
	})

	t.Run("CommentWithoutBookingRejected", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), other.ID, map[string]string{"text": "nice"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBookingEndpoints(t *testing.T) {
	ts := newTestServer(t)

	owner := createUser(t, ts, "Owner", "owner@example.com")
	booker := createUser(t, ts, "Booker", "booker@example.com")
	stranger := createUser(t, ts, "Stranger", "stranger@example.com")
	item := createItem(t, ts, owner.ID, "Camera", true)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(48 * time.Hour)

	t.Run("SelfBookForbidden", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPost, "/bookings", owner.ID, map[string]any{
			"itemId": item.ID, "start": start, "end": end,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("EndBeforeStartRejected", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPost, "/bookings", booker.ID, map[string]any{
			"itemId": item.ID, "start": end, "end": start,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnavailableItemRejected", func(t *testing.T) {
		unavailable := createItem(t, ts, owner.ID, "Broken", false)
		resp, _ := doRequest(t, ts, http.MethodPost, "/bookings", booker.ID, map[string]any{
			"itemId": unavailable.ID, "start": start, "end": end,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	booking := createBooking(t, ts, booker.ID, item.ID, start, end)
	assert.Equal(t, models.StatusWaiting, booking.Status)

	t.Run("GetByStrangerForbidden", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), stranger.ID, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("ApproveByNonOwnerForbidden", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), booker.ID, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("ApproveByOwner", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		var got models.Booking
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("SecondDecisionRejected", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=false", booking.ID), owner.ID, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ListForBookerFuture", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, "/bookings?state=FUTURE", booker.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got []models.Booking
		require.NoError(t, json.Unmarshal(data, &got))
		require.Len(t, got, 1)
		assert.Equal(t, booking.ID, got[0].ID)
	})

	t.Run("ListForOwnerAll", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, "/bookings/owner", owner.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got []models.Booking
		require.NoError(t, json.Unmarshal(data, &got))
		assert.NotEmpty(t, got)
	})

	t.Run("UnknownStateRejected", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodGet, "/bookings?state=BOGUS", booker.ID, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownUserNotFound", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodGet, "/bookings", 9999, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCommentAfterFinishedBooking(t *testing.T) {
	ts := newTestServer(t)

	owner := createUser(t, ts, "Owner", "owner@example.com")
	booker := createUser(t, ts, "Booker", "booker@example.com")
	item := createItem(t, ts, owner.ID, "Tent", true)

	start := time.Now().Add(-72 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(24 * time.Hour)
	booking := createBooking(t, ts, booker.ID, item.ID, start, end)

	resp, _ := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := doRequest(t, ts, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), booker.ID, map[string]string{"text": "held up great"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var comment models.Comment
	require.NoError(t, json.Unmarshal(data, &comment))
	assert.Equal(t, "held up great", comment.Text)
	assert.Equal(t, "Booker", comment.AuthorName)

	// Comment shows up in the item view afterwards.
	resp, data = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), booker.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.ItemView
	require.NoError(t, json.Unmarshal(data, &view))
	require.Len(t, view.Comments, 1)
}

func TestRequestEndpoints(t *testing.T) {
	ts := newTestServer(t)

	requestor := createUser(t, ts, "Requestor", "requestor@example.com")
	owner := createUser(t, ts, "Owner", "owner@example.com")

	resp, data := doRequest(t, ts, http.MethodPost, "/requests", requestor.ID, map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var request models.ItemRequest
	require.NoError(t, json.Unmarshal(data, &request))
	assert.NotZero(t, request.ID)

	t.Run("EmptyDescriptionRejected", func(t *testing.T) {
		resp, _ := doRequest(t, ts, http.MethodPost, "/requests", requestor.ID, map[string]string{"description": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("OwnListIncludesAnswers", func(t *testing.T) {
		respItem, _ := doRequest(t, ts, http.MethodPost, "/items", owner.ID, map[string]any{
			"name": "Drill", "description": "answers the request", "available": true, "requestId": request.ID,
		})
		require.Equal(t, http.StatusOK, respItem.StatusCode)

		resp, data := doRequest(t, ts, http.MethodGet, "/requests", requestor.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var views []models.RequestView
		require.NoError(t, json.Unmarshal(data, &views))
		require.Len(t, views, 1)
		require.Len(t, views[0].Items, 1)
		assert.Equal(t, "Drill", views[0].Items[0].Name)
	})

	t.Run("OthersListExcludesOwn", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, "/requests/all", requestor.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var views []models.RequestView
		require.NoError(t, json.Unmarshal(data, &views))
		assert.Empty(t, views)

		resp, data = doRequest(t, ts, http.MethodGet, "/requests/all", owner.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(data, &views))
		assert.Len(t, views, 1)
	})

	t.Run("GetByID", func(t *testing.T) {
		resp, data := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/requests/%d", request.ID), owner.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var view models.RequestView
		require.NoError(t, json.Unmarshal(data, &view))
		assert.Equal(t, "need a drill", view.Description)
	})
}

func TestRateLimiting(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "rate.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.HTTPConfig{
		Port:           8080,
		IdentityHeader: identityHeader,
		RateLimit:      config.RateLimitConfig{RPS: 1, Burst: 2},
	}
	users := service.NewUserService(db, &logger)
	srv := NewHTTPServer(cfg, users, nil, nil, nil, nil, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var last int
	for i := 0; i < 5; i++ {
		resp, _ := doRequest(t, ts, http.MethodGet, "/users", 1, nil)
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
