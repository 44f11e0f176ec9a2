// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package membership_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kkm-registry/internal/membership"
	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/ctxutil"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
)

const (
	adminID  = "0190a6c4-0000-7000-8000-00000000000a"
	memberID = "0190a6c4-0000-7000-8000-00000000000b"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// memoryMemberships is an in-memory Repository that stamps requests one minute
// apart, or all at testEpoch when sameInstant is set.
type memoryMemberships struct {
	mu          sync.Mutex
	entries     []membership.Entry
	calls       int
	sameInstant bool
}

func (store *memoryMemberships) Create(_ context.Context, m *membership.Membership) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++

	for _, entry := range store.entries {
		if entry.UserID == m.UserID && entry.Status == membership.StatusRequest {
			return apperr.Conflict("Membership request already pending")
		}
	}

	m.RequestedOn = testEpoch
	if !store.sameInstant {
		m.RequestedOn = testEpoch.Add(time.Duration(len(store.entries)) * time.Minute)
	}
	store.entries = append(store.entries, membership.Entry{
		MembershipID: m.MembershipID,
		UserID:       m.UserID,
		Email:        m.UserID[len(m.UserID)-1:] + "@kkm.org",
		Status:       m.Status,
		RequestedOn:  m.RequestedOn,
	})
	return nil
}

func (store *memoryMemberships) List(_ context.Context, filter membership.ListFilter) ([]membership.Entry, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++

	var entries []membership.Entry
	for _, entry := range store.entries {
		if filter.After != nil && !afterCursor(entry, *filter.After, filter.AfterID) {
			continue
		}
		if filter.Status != "" && !strings.Contains(string(entry.Status), filter.Status) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].RequestedOn.Equal(entries[j].RequestedOn) {
			return entries[i].RequestedOn.Before(entries[j].RequestedOn)
		}
		return entries[i].MembershipID < entries[j].MembershipID
	})

	if len(entries) > filter.FetchLimit() {
		entries = entries[:filter.FetchLimit()]
	}
	return entries, nil
}

// afterCursor mirrors the row comparison of the SQL cursor.
func afterCursor(entry membership.Entry, after time.Time, afterID string) bool {
	if afterID == "" || !entry.RequestedOn.Equal(after) {
		return entry.RequestedOn.After(after)
	}
	return entry.MembershipID > afterID
}

func as(userID string, role sec.UserRole) *authz.Authorized {
	return &authz.Authorized{AuthUserID: userID, AuthUser: &authz.Identity{UserID: userID, Role: role}}
}

/*
TestService_Request rejects a second pending request from the same member.
*/
func TestService_Request(t *testing.T) {
	service := membership.NewService(&memoryMemberships{})
	ctx := context.Background()

	created, err := service.Request(ctx, as(memberID, sec.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, membership.StatusRequest, created.Status)
	assert.Equal(t, memberID, created.UserID)
	assert.Equal(t, testEpoch, created.RequestedOn)
	assert.NotEmpty(t, created.MembershipID)

	_, err = service.Request(ctx, as(memberID, sec.RoleUser))
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, "Membership request already pending", appErr.Message)

	_, err = service.Request(ctx, as(adminID, sec.RoleAdmin))
	assert.NoError(t, err)
}

/*
TestService_List_AdminOnly never reaches the store for non-admins.
*/
func TestService_List_AdminOnly(t *testing.T) {
	store := &memoryMemberships{}
	_, _, err := membership.NewService(store).List(context.Background(), as(memberID, sec.RoleUser), membership.ListFilter{Limit: 25})

	assert.True(t, apperr.HasCode(err, apperr.CodeNotAuthorized))
	assert.Zero(t, store.calls)
}

// # HTTP

func newRouter(store membership.Repository, caller *authz.Authorized) http.Handler {
	router := membership.NewHandler(membership.NewService(store)).Routes()

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := ctxutil.WithAuthorized(request.Context(), caller)
		router.ServeHTTP(writer, request.WithContext(ctx))
	})
}

/*
TestHandler_RequestThenReview files requests and pages through the queue by requested_on.
*/
func TestHandler_RequestThenReview(t *testing.T) {
	store := &memoryMemberships{}

	// 1. Two members file requests
	for _, userID := range []string{memberID, adminID} {
		recorder := httptest.NewRecorder()
		newRouter(store, as(userID, sec.RoleUser)).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, recorder.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "request", body["user_membership_status"])
		assert.NotEmpty(t, body["user_membership_requested_on"])
		assert.Contains(t, body, "authorized")
	}

	// 2. A duplicate is refused
	recorder := httptest.NewRecorder()
	newRouter(store, as(memberID, sec.RoleUser)).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// 3. The admin reads the queue one entry at a time
	admin := newRouter(store, as(adminID, sec.RoleAdmin))

	recorder = httptest.NewRecorder()
	admin.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/?limit=1&status=req", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var page struct {
		Memberships []membership.Entry `json:"memberships"`
		HasMore     bool               `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	require.Len(t, page.Memberships, 1)
	assert.Equal(t, memberID, page.Memberships[0].UserID)
	assert.True(t, page.HasMore)

	cursor := page.Memberships[0].RequestedOn.Format(time.RFC3339Nano)
	recorder = httptest.NewRecorder()
	admin.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/?limit=1&last_requested_on="+cursor, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	page.Memberships = nil
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	require.Len(t, page.Memberships, 1)
	assert.Equal(t, adminID, page.Memberships[0].UserID)
	assert.False(t, page.HasMore)
}

/*
TestHandler_PagesThroughTies walks a queue whose entries share one
requested_on without skipping or repeating any of them.
*/
func TestHandler_PagesThroughTies(t *testing.T) {
	store := &memoryMemberships{sameInstant: true}
	members := []string{memberID, adminID, "0190a6c4-0000-7000-8000-00000000000c"}
	for _, userID := range members {
		recorder := httptest.NewRecorder()
		newRouter(store, as(userID, sec.RoleUser)).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	admin := newRouter(store, as(adminID, sec.RoleAdmin))
	seen := map[string]bool{}
	target := "/?limit=1"

	for range members {
		recorder := httptest.NewRecorder()
		admin.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, recorder.Code)

		var page struct {
			Memberships []membership.Entry `json:"memberships"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
		require.Len(t, page.Memberships, 1)

		last := page.Memberships[0]
		assert.True(t, last.RequestedOn.Equal(testEpoch))
		assert.False(t, seen[last.UserID], "entry repeated")
		seen[last.UserID] = true

		target = "/?limit=1&last_requested_on=" + url.QueryEscape(last.RequestedOn.Format(time.RFC3339Nano)) +
			"&last_membership_id=" + strings.ToUpper(last.MembershipID)
	}
	assert.Len(t, seen, len(members))

	recorder := httptest.NewRecorder()
	admin.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"memberships":[]`)
}

/*
TestHandler_ListRejections covers the 403 and 400 answers of the queue.
*/
func TestHandler_ListRejections(t *testing.T) {
	tests := []struct {
		name       string
		caller     *authz.Authorized
		target     string
		wantStatus int
	}{
		{"member", as(memberID, sec.RoleUser), "/", http.StatusForbidden},
		{"member_bad_cursor", as(memberID, sec.RoleUser), "/?last_requested_on=yesterday", http.StatusForbidden},
		{"admin_bad_cursor", as(adminID, sec.RoleAdmin), "/?last_requested_on=yesterday", http.StatusBadRequest},
		{"admin_bad_limit", as(adminID, sec.RoleAdmin), "/?limit=-3", http.StatusBadRequest},
		{"admin_bad_id_cursor", as(adminID, sec.RoleAdmin), "/?last_requested_on=2026-03-01T09:00:00Z&last_membership_id=42", http.StatusBadRequest},
		{"admin_id_cursor_alone", as(adminID, sec.RoleAdmin), "/?last_membership_id=" + memberID, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			newRouter(&memoryMemberships{}, tt.caller).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestHandler_EmptyQueue renders an empty array, never null.
*/
func TestHandler_EmptyQueue(t *testing.T) {
	recorder := httptest.NewRecorder()
	newRouter(&memoryMemberships{}, as(adminID, sec.RoleAdmin)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"memberships":[]`)
	assert.Contains(t, recorder.Body.String(), `"hasMore":false`)
}

/*
TestListQuery renders the filters and the cursors as bound parameters.
*/
func TestListQuery(t *testing.T) {
	after := testEpoch
	query := membership.ListQuery(membership.ListFilter{Status: "request", After: &after, Limit: 10})

	assert.Equal(t,
		"SELECT m.membership_id, m.user_id, l.user_email, COALESCE(u.user_name, '') AS user_name, m.status, m.requested_on"+
			" FROM memberships m LEFT JOIN logins l ON l.user_id = m.user_id LEFT JOIN users u ON u.user_id = m.user_id"+
			" WHERE (m.status ILIKE $1) AND (m.requested_on > $2)"+
			" ORDER BY m.requested_on ASC, m.membership_id ASC LIMIT 11",
		query.SQL())
	assert.Equal(t, []any{"%request%", testEpoch}, query.Params)

	const lastID = "0190a6c4-0000-7000-8000-0000000000ff"
	query = membership.ListQuery(membership.ListFilter{After: &after, AfterID: lastID, Limit: 10})
	assert.Contains(t, query.SQL(), " WHERE ((m.requested_on, m.membership_id) > ($1, $2::uuid)) ORDER BY")
	assert.Equal(t, []any{testEpoch, lastID}, query.Params)
}
