package chatclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_Feed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/threads/7/feed", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("after_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"messages":[{"message_id":13,"sender_id":2,"sender_name":"Bo","timestamp":"2026-03-02T10:00:00Z","content":"ok"}]}`))
	}))
	defer srv.Close()

	got, err := NewAPI(srv.URL+"/", "tok", srv.Client()).Feed(context.Background(), 7, 12)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(13), got[0].MessageID)
	assert.Equal(t, "Bo", got[0].SenderName)
	assert.True(t, got[0].Timestamp.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
}

func TestAPI_FeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not a participant"}`))
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL, "", srv.Client()).Feed(context.Background(), 7, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))
	assert.Contains(t, err.Error(), "not a participant")
}

func TestAPI_Reply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "on my way", r.PostForm.Get("content"))
		_, _ = w.Write([]byte(`{"success":true,"message":{"message_id":20,"sender_id":1,"sender_name":"Ana","timestamp":"2026-03-02T10:00:00Z","content":"on my way"}}`))
	}))
	defer srv.Close()

	msg, err := NewAPI(srv.URL, "tok", srv.Client()).Reply(context.Background(), 7, "on my way")
	require.NoError(t, err)
	assert.Equal(t, int64(20), msg.MessageID)
}

func TestAPI_ReplyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Message cannot be empty."}`))
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL, "", srv.Client()).Reply(context.Background(), 7, "x")
	assert.ErrorContains(t, err, "Message cannot be empty.")
}

func TestAPI_SubmitFormDoesNotFollowRedirect(t *testing.T) {
	var followed bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/messages/threads/7/reply", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Accept"))
		http.Redirect(w, r, "/messages/threads/7", http.StatusSeeOther)
	})
	mux.HandleFunc("/messages/threads/7", func(w http.ResponseWriter, r *http.Request) {
		followed = true
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	err := NewAPI(srv.URL, "", srv.Client()).SubmitForm(context.Background(), 7, "fallback")
	require.NoError(t, err)
	assert.False(t, followed)
}
