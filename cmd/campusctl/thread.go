package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Domenick1991/campushub/internal/chatclient"
	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/spf13/cobra"
)

// printer renders feed messages as terminal lines.
type printer struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

func (p *printer) Render(msg messaging.FeedItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s: %s\n", msg.Timestamp.Local().Format("Jan 2 15:04"), msg.SenderName, msg.Content)
}

func (p *printer) Warn(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.err, "!", text)
}

func newThreadCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Read and answer message threads",
	}
	cmd.AddCommand(newWatchCmd(opts), newReplyCmd(opts))
	return cmd
}

func parseThreadID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid thread id %q", raw)
	}
	return id, nil
}

func (o *options) api() *chatclient.API {
	return chatclient.NewAPI(o.server, o.token, &http.Client{Timeout: o.timeout})
}

func newWatchCmd(opts *options) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <thread-id>",
		Short: "Follow a thread; lines typed on stdin are sent as replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID, err := parseThreadID(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := opts.api()
			out := &printer{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
			poller := chatclient.NewPoller(client, threadID, out,
				chatclient.WithInterval(interval),
				chatclient.WithWarner(out),
				chatclient.WithFallback(client),
				chatclient.WithLogger(opts.logger),
			)

			if err := poller.PollOnce(ctx); err != nil {
				return fmt.Errorf("load thread %d: %w", threadID, err)
			}
			poller.Start(ctx)
			defer poller.Stop()

			return readReplies(ctx, cmd.InOrStdin(), poller)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", chatclient.DefaultInterval, "Polling interval")
	return cmd
}

// readReplies sends each stdin line until EOF or cancellation.
func readReplies(ctx context.Context, in io.Reader, poller *chatclient.Poller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if err := poller.Reply(ctx, line); err != nil && !errors.Is(err, chatclient.ErrEmptyReply) {
				return err
			}
		}
	}
}

func newReplyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <thread-id> <message...>",
		Short: "Send one reply to a thread",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threadID, err := parseThreadID(args[0])
			if err != nil {
				return err
			}
			client := opts.api()
			out := &printer{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
			poller := chatclient.NewPoller(client, threadID, out,
				chatclient.WithWarner(out),
				chatclient.WithFallback(client),
				chatclient.WithLogger(opts.logger),
			)
			return poller.Reply(cmd.Context(), strings.Join(args[1:], " "))
		},
	}
}
