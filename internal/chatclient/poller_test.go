package chatclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeAPI stores messages like the server does and answers the feed with
// everything after after_id. With replays set it ignores after_id and resends
// the whole thread.
type fakeAPI struct {
	mu       sync.Mutex
	stored   []messaging.FeedItem
	nextID   int64
	replays  bool
	feedErrs []error
	afterIDs []int64
	replyErr error
	replies  []string
}

func (f *fakeAPI) post(senderID int64, content string) messaging.FeedItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeLocked(senderID, content)
}

func (f *fakeAPI) storeLocked(senderID int64, content string) messaging.FeedItem {
	f.nextID++
	item := messaging.FeedItem{MessageID: f.nextID, SenderID: senderID, SenderName: "Ana", Content: content}
	f.stored = append(f.stored, item)
	return item
}

func (f *fakeAPI) Feed(ctx context.Context, threadID, afterID int64) ([]messaging.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterIDs = append(f.afterIDs, afterID)
	if len(f.feedErrs) > 0 {
		err := f.feedErrs[0]
		f.feedErrs = f.feedErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	var out []messaging.FeedItem
	for _, item := range f.stored {
		if f.replays || item.MessageID > afterID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeAPI) Reply(ctx context.Context, threadID int64, content string) (*messaging.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, content)
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	item := f.storeLocked(2, content)
	return &item, nil
}

func (f *fakeAPI) requestedAfter() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.afterIDs...)
}

func (f *fakeAPI) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

type recorder struct {
	mu    sync.Mutex
	ids   []int64
	warns []string
}

func (r *recorder) Render(msg messaging.FeedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, msg.MessageID)
}

func (r *recorder) Warn(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, text)
}

func (r *recorder) rendered() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

type fallbackSpy struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fallbackSpy) SubmitForm(ctx context.Context, threadID int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, content)
	return f.err
}

func items(ids ...int64) []messaging.FeedItem {
	out := make([]messaging.FeedItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, messaging.FeedItem{MessageID: id, SenderID: 1, SenderName: "Ana", Content: "hi"})
	}
	return out
}

func TestPollOnce_RendersEachMessageOnce(t *testing.T) {
	api := &fakeAPI{replays: true}
	for i := 0; i < 4; i++ {
		api.post(1, "hi")
	}
	rec := &recorder{}
	p := NewPoller(api, 7, rec)
	p.Seed(items(1, 2))

	require.NoError(t, p.PollOnce(context.Background()))
	api.post(1, "still there?")
	require.NoError(t, p.PollOnce(context.Background()))
	require.NoError(t, p.PollOnce(context.Background()))

	assert.Equal(t, []int64{3, 4, 5}, rec.rendered())
	assert.Equal(t, []int64{2, 4, 5}, api.requestedAfter())
	assert.Equal(t, int64(5), p.LastID())
}

func TestPoller_LoopRetriesAfterFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{feedErrs: []error{errors.New("connection refused")}, nextID: 9}
	api.post(1, "hi")
	rec := &recorder{}
	p := NewPoller(api, 7, rec, WithInterval(5*time.Millisecond))

	p.Start(context.Background())
	p.Start(context.Background())
	assert.Eventually(t, func() bool { return len(rec.rendered()) == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	assert.Equal(t, []int64{10}, rec.rendered())
	after := api.requestedAfter()
	require.GreaterOrEqual(t, len(after), 2)
	assert.Equal(t, int64(0), after[0])
}

func TestReply_EmptyContentWarns(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	p := NewPoller(api, 7, rec, WithWarner(rec))

	err := p.Reply(context.Background(), "  \n\t ")
	assert.ErrorIs(t, err, ErrEmptyReply)
	assert.Equal(t, []string{"Message cannot be empty."}, rec.warns)
	assert.Equal(t, 0, api.replyCount())
}

func TestReply_RendersEchoOnce(t *testing.T) {
	api := &fakeAPI{nextID: 40}
	api.post(1, "are you coming?")
	rec := &recorder{}
	p := NewPoller(api, 7, rec)

	require.NoError(t, p.Reply(context.Background(), "see you at 3"))
	require.NoError(t, p.PollOnce(context.Background()))
	require.NoError(t, p.PollOnce(context.Background()))

	assert.Equal(t, []int64{42, 41}, rec.rendered())
	assert.Equal(t, []int64{0, 42}, api.requestedAfter())
	assert.Equal(t, int64(42), p.LastID())
}

func TestReply_PeerMessageBeforeEchoStillArrives(t *testing.T) {
	api := &fakeAPI{}
	api.post(1, "room 204 is free")
	rec := &recorder{}
	p := NewPoller(api, 7, rec)
	require.NoError(t, p.PollOnce(context.Background()))

	// the peer writes between two polls, then our reply is stored after it
	api.post(1, "want it?")
	require.NoError(t, p.Reply(context.Background(), "yes please"))
	assert.Equal(t, int64(1), p.LastID(), "echo must not move the watermark")

	require.NoError(t, p.PollOnce(context.Background()))

	assert.Equal(t, []int64{1, 3, 2}, rec.rendered())
	assert.Equal(t, []int64{0, 1}, api.requestedAfter())
	assert.Equal(t, int64(3), p.LastID())
}

func TestReply_FailureFallsBackOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{replyErr: errors.New("503")}
	rec := &recorder{}
	spy := &fallbackSpy{}
	p := NewPoller(api, 7, rec, WithFallback(spy), WithInterval(time.Hour))
	p.Start(context.Background())

	require.NoError(t, p.Reply(context.Background(), "first"))
	require.NoError(t, p.Reply(context.Background(), "second"))

	// polling stays off after the fallback
	p.Start(context.Background())
	assert.Nil(t, p.cancel)

	assert.Equal(t, []string{"first"}, spy.calls)
	assert.Equal(t, 1, api.replyCount())
}

func TestReply_FailureWithoutFallbackReturnsError(t *testing.T) {
	api := &fakeAPI{replyErr: errors.New("boom")}
	p := NewPoller(api, 7, &recorder{})

	err := p.Reply(context.Background(), "hello")
	assert.EqualError(t, err, "boom")
}
