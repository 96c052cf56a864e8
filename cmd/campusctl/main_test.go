package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReplyCmd_Optimistic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/threads/12/reply", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "see you at 3", r.PostForm.Get("content"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":{"message_id":43,"sender_id":7,"sender_name":"Sam","timestamp":"2026-03-02T09:30:00Z","content":"see you at 3"}}`))
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "--server", srv.URL, "--token", "tok", "thread", "reply", "12", "see", "you", "at", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Sam: see you at 3")
}

func TestReplyCmd_FallsBackToFormSubmit(t *testing.T) {
	var jsonCalls, formCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/json" {
			jsonCalls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		formCalls.Add(1)
		http.Redirect(w, r, "/messages/threads/12", http.StatusSeeOther)
	}))
	defer srv.Close()

	_, _, err := runCLI(t, "--server", srv.URL, "thread", "reply", "12", "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(1), jsonCalls.Load())
	assert.Equal(t, int32(1), formCalls.Load())
}

func TestReplyCmd_BlankWarns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	_, errOut, err := runCLI(t, "--server", srv.URL, "thread", "reply", "12", "   ")
	assert.Error(t, err)
	assert.Contains(t, errOut, "Message cannot be empty.")
}

func TestReplyCmd_BadThreadID(t *testing.T) {
	_, _, err := runCLI(t, "thread", "reply", "abc", "hi")
	assert.ErrorContains(t, err, "invalid thread id")
}

func TestPrinter_Render(t *testing.T) {
	var out bytes.Buffer
	p := &printer{out: &out, err: &out}
	p.Render(messaging.FeedItem{SenderName: "Olive", Content: "Room is free", Timestamp: time.Now()})
	assert.Contains(t, out.String(), "Olive: Room is free")
}
