package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type scriptedReply struct {
	resp *genai.GenerateContentResponse
	err  error
}

type recordedChat struct {
	config   *genai.GenerateContentConfig
	messages []string
}

// scriptedChats replays queued replies, one chat per call.
type scriptedChats struct {
	mu      sync.Mutex
	replies []scriptedReply
	chats   []*recordedChat
}

type scriptedChat struct {
	owner  *scriptedChats
	record *recordedChat
	reply  scriptedReply
}

func (c *scriptedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	for _, part := range parts {
		c.record.messages = append(c.record.messages, part.Text)
	}
	return c.reply.resp, c.reply.err
}

func (s *scriptedChats) Create(_ context.Context, _ string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.replies) == 0 {
		return nil, errors.New("unexpected call")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]

	record := &recordedChat{config: config}
	s.chats = append(s.chats, record)
	return &scriptedChat{owner: s, record: record, reply: reply}, nil
}

func (s *scriptedChats) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func textReply(text string) scriptedReply {
	return scriptedReply{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}}
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()

	var delays []time.Duration
	original := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &delays
}

func newTestGenerator(chats *scriptedChats, retries int) *Generator {
	return &Generator{chats: chats, model: "gemini-test", maxRetries: retries, logger: zap.NewNop()}
}

func TestGenerateContentSendsSystemInstruction(t *testing.T) {
	chats := &scriptedChats{replies: []scriptedReply{textReply("  [\"q1\"]  ")}}
	g := newTestGenerator(chats, 1)

	out, err := g.GenerateContent(context.Background(), "be an interviewer", "resume text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `["q1"]` {
		t.Fatalf("unexpected output %q", out)
	}

	call := chats.chats[0]
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatal("expected system instruction")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "be an interviewer" {
		t.Fatalf("unexpected system instruction %q", got)
	}
	if len(call.messages) != 1 || call.messages[0] != "resume text" {
		t.Fatalf("unexpected messages %q", call.messages)
	}
}

func TestGenerateContentRetriesServerErrors(t *testing.T) {
	delays := noSleep(t)

	chats := &scriptedChats{replies: []scriptedReply{
		{err: genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}},
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		textReply("third time lucky"),
	}}
	g := newTestGenerator(chats, 3)

	out, err := g.GenerateContent(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "third time lucky" {
		t.Fatalf("unexpected output %q", out)
	}
	if chats.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", chats.calls())
	}
	if len(*delays) != 2 || (*delays)[0] != retryBase || (*delays)[1] != 2*retryBase {
		t.Fatalf("unexpected backoff delays %v", *delays)
	}
}

func TestGenerateContentGivesUpAfterMaxRetries(t *testing.T) {
	noSleep(t)

	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats := &scriptedChats{replies: []scriptedReply{{err: tempErr}, {err: tempErr}}}
	g := newTestGenerator(chats, 2)

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if chats.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", chats.calls())
	}
}

func TestGenerateContentDoesNotRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "long quota delay", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exhausted, retry after 60 seconds"}},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delays := noSleep(t)
			chats := &scriptedChats{replies: []scriptedReply{{err: tc.err}, textReply("unused")}}
			g := newTestGenerator(chats, 3)

			if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
				t.Fatal("expected error")
			}
			if chats.calls() != 1 || len(*delays) != 0 {
				t.Fatalf("expected a single call without sleeping, got %d calls, %v", chats.calls(), *delays)
			}
		})
	}
}

func TestGenerateContentStopsWaitingOnCancel(t *testing.T) {
	original := sleep
	sleep = func(ctx context.Context, _ time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = original })

	chats := &scriptedChats{replies: []scriptedReply{
		{err: genai.APIError{Code: http.StatusServiceUnavailable}},
		textReply("unused"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestGenerator(chats, 3).GenerateContent(ctx, "", "msg"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if chats.calls() != 1 {
		t.Fatalf("expected no retry after cancel, got %d calls", chats.calls())
	}
}

func TestRetryDelayHonoursShortQuotaHint(t *testing.T) {
	t.Parallel()

	err := genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 1.5s."}
	delay, retry := retryDelay(err, 1)
	if !retry || delay != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s retry, got %v %v", delay, retry)
	}
}

func TestGenerateContentRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(&scriptedChats{}, 1)
	if _, err := g.GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty message")
	}

	var nilGen *Generator
	if _, err := nilGen.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if nilGen.Model() != "" {
		t.Fatal("nil generator should report empty model")
	}
}

func TestGenerateContentEmptyResponse(t *testing.T) {
	t.Parallel()

	chats := &scriptedChats{replies: []scriptedReply{{resp: &genai.GenerateContentResponse{}}}}
	if _, err := newTestGenerator(chats, 1).GenerateContent(context.Background(), "", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
