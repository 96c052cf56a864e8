package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/tidwall/gjson"
)

// API is the HTTP side of the messaging widget.
type API struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAPI(baseURL, token string, client *http.Client) *API {
	if client == nil {
		client = http.DefaultClient
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (a *API) threadURL(threadID int64, suffix string) string {
	return fmt.Sprintf("%s/api/v1/messages/threads/%d/%s", a.baseURL, threadID, suffix)
}

func (a *API) authorize(req *http.Request) {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

// Feed returns the messages newer than afterID.
func (a *API) Feed(ctx context.Context, threadID, afterID int64) ([]messaging.FeedItem, error) {
	u := a.threadURL(threadID, "feed") + "?after_id=" + strconv.FormatInt(afterID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	a.authorize(req)

	body, status, err := a.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, responseError(status, body)
	}

	var out struct {
		Messages []messaging.FeedItem `json:"messages"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return out.Messages, nil
}

// Reply posts content in the background and returns the stored message.
func (a *API) Reply(ctx context.Context, threadID int64, content string) (*messaging.FeedItem, error) {
	req, err := a.replyRequest(ctx, threadID, content)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := a.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || !gjson.GetBytes(body, "success").Bool() {
		return nil, responseError(status, body)
	}

	var out struct {
		Message messaging.FeedItem `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &out.Message, nil
}

// SubmitForm is the full-page submission path: no JSON negotiation, the
// server answers with a redirect back to the thread.
func (a *API) SubmitForm(ctx context.Context, threadID int64, content string) error {
	req, err := a.replyRequest(ctx, threadID, content)
	if err != nil {
		return err
	}

	client := *a.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit reply form: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusSeeOther || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	return responseError(resp.StatusCode, body)
}

func (a *API) replyRequest(ctx context.Context, threadID int64, content string) (*http.Request, error) {
	form := url.Values{"content": {content}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.threadURL(threadID, "reply"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.authorize(req)
	return req, nil
}

func (a *API) do(req *http.Request) ([]byte, int, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// ErrRequest carries the server's {"error": ...} text.
var ErrRequest = errors.New("request failed")

func responseError(status int, body []byte) error {
	if msg := gjson.GetBytes(body, "error").String(); msg != "" {
		return fmt.Errorf("%w: %d: %s", ErrRequest, status, msg)
	}
	return fmt.Errorf("%w: status %d", ErrRequest, status)
}
