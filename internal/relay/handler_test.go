package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"tutorbot/internal/domain"
	"tutorbot/internal/prompt"
	"tutorbot/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// stubCompleter and stubMessenger record invocations into a shared call log
// so tests can assert ordering.
type stubCompleter struct {
	response string
	err      error
	prompts  []string
	calls    *[]string
}

func (s *stubCompleter) Complete(ctx context.Context, p string) (string, error) {
	s.prompts = append(s.prompts, p)
	*s.calls = append(*s.calls, "complete")
	return s.response, s.err
}

type stubMessenger struct {
	err   error
	sent  []domain.OutboundMessage
	calls *[]string
}

func (s *stubMessenger) Send(ctx context.Context, msg domain.OutboundMessage) error {
	s.sent = append(s.sent, msg)
	*s.calls = append(*s.calls, "send")
	return s.err
}

type fixture struct {
	completer *stubCompleter
	messenger *stubMessenger
	calls     []string
	router    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.completer = &stubCompleter{calls: &f.calls}
	f.messenger = &stubMessenger{calls: &f.calls}
	h := NewHandler(HandlerConfig{
		Secret:    "sekrit",
		Completer: f.completer,
		Messenger: f.messenger,
		Logger:    testLogger(),
	})
	f.router = NewRouter("/telegram", h)
	return f
}

func (f *fixture) post(t *testing.T, secret, body string) (*httptest.ResponseRecorder, ack) {
	t.Helper()
	req := httptest.NewRequest("POST", "/telegram/"+secret, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	var a ack
	if err := json.Unmarshal(rr.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal ack: %v (body %q)", err, rr.Body.String())
	}
	return rr, a
}

func textUpdate(chatID int64, messageID int, text string) string {
	return fmt.Sprintf(`{"update_id":1,"message":{"message_id":%d,"chat":{"id":%d,"type":"private"},"text":%q}}`,
		messageID, chatID, text)
}

func TestWebhook_BadSecret(t *testing.T) {
	f := newFixture(t)
	rr, a := f.post(t, "wrong", textUpdate(1, 2, "hello"))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if a.OK || a.Error != "bad secret" {
		t.Errorf("ack = %+v", a)
	}
	if len(f.calls) != 0 {
		t.Errorf("no outbound call may occur on secret mismatch, got %v", f.calls)
	}
}

func TestWebhook_NoMessage(t *testing.T) {
	f := newFixture(t)
	rr, a := f.post(t, "sekrit", `{"update_id":7}`)

	if rr.Code != http.StatusOK || !a.OK || a.Error != "" {
		t.Errorf("status=%d ack=%+v", rr.Code, a)
	}
	if len(f.calls) != 0 {
		t.Errorf("no outbound call may occur for empty updates, got %v", f.calls)
	}
}

func TestWebhook_MessageWithoutText(t *testing.T) {
	f := newFixture(t)
	body := `{"update_id":7,"message":{"message_id":5,"chat":{"id":9,"type":"private"},"sticker":{"file_id":"x","file_unique_id":"y"}}}`
	_, a := f.post(t, "sekrit", body)

	if !a.OK {
		t.Errorf("ack = %+v", a)
	}
	if len(f.calls) != 0 {
		t.Errorf("sticker update must be ignored, got calls %v", f.calls)
	}
}

func TestWebhook_UndecodableBody(t *testing.T) {
	f := newFixture(t)
	rr, a := f.post(t, "sekrit", "{nope")

	if rr.Code != http.StatusOK || !a.OK {
		t.Errorf("status=%d ack=%+v", rr.Code, a)
	}
	if len(f.calls) != 0 {
		t.Errorf("malformed body must be ignored, got calls %v", f.calls)
	}
}

func TestWebhook_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.completer.response = "Answer (English): ... Answer (Sinhala): ..."

	_, a := f.post(t, "sekrit", textUpdate(100, 42, "What is photosynthesis?"))

	if !a.OK {
		t.Errorf("ack = %+v", a)
	}
	if len(f.calls) != 2 || f.calls[0] != "complete" || f.calls[1] != "send" {
		t.Fatalf("expected exactly [complete send], got %v", f.calls)
	}
	if len(f.completer.prompts) != 1 {
		t.Fatalf("prompts = %d", len(f.completer.prompts))
	}
	if !strings.Contains(f.completer.prompts[0], "What is photosynthesis?") {
		t.Error("prompt should embed the user question")
	}
	if f.completer.prompts[0] == "What is photosynthesis?" {
		t.Error("prompt must be the rendered template, not the raw question")
	}

	sent := f.messenger.sent[0]
	if sent.ChatID != 100 {
		t.Errorf("chat id = %d", sent.ChatID)
	}
	if sent.ReplyTo != 42 {
		t.Errorf("reply-to = %d, want the inbound message id", sent.ReplyTo)
	}
	if sent.Text != "Answer (English): ... Answer (Sinhala): ..." {
		t.Errorf("sent text = %q", sent.Text)
	}
}

func TestWebhook_EditedMessage(t *testing.T) {
	f := newFixture(t)
	f.completer.response = "edited reply"
	body := `{"update_id":1,"edited_message":{"message_id":8,"chat":{"id":3,"type":"private"},"text":"revised question"}}`

	_, a := f.post(t, "sekrit", body)

	if !a.OK {
		t.Errorf("ack = %+v", a)
	}
	if len(f.messenger.sent) != 1 || f.messenger.sent[0].ReplyTo != 8 {
		t.Errorf("edited message should relay like a new one, sent=%+v", f.messenger.sent)
	}
}

func TestWebhook_EmptyCompletionSendsFallback(t *testing.T) {
	f := newFixture(t)
	f.completer.response = ""

	_, a := f.post(t, "sekrit", textUpdate(1, 2, "q"))

	if !a.OK {
		t.Errorf("ack = %+v", a)
	}
	if len(f.messenger.sent) != 1 {
		t.Fatalf("sent = %d", len(f.messenger.sent))
	}
	if f.messenger.sent[0].Text != prompt.Fallback() {
		t.Error("empty completion must relay the fixed bilingual fallback exactly")
	}
}

func TestWebhook_ProviderHTTPError(t *testing.T) {
	f := newFixture(t)
	f.completer.err = &provider.StatusError{Code: 429, Body: "rate limited"}

	rr, a := f.post(t, "sekrit", textUpdate(1, 2, "q"))

	if rr.Code != http.StatusOK || !a.OK {
		t.Errorf("webhook must still acknowledge: status=%d ack=%+v", rr.Code, a)
	}
	if len(f.messenger.sent) != 1 {
		t.Fatalf("diagnostic message not sent")
	}
	text := f.messenger.sent[0].Text
	if !strings.Contains(text, "429") || !strings.Contains(text, "rate limited") {
		t.Errorf("diagnostic %q should carry status code and body", text)
	}
	if f.messenger.sent[0].ReplyTo != 2 {
		t.Error("diagnostic should thread to the triggering message")
	}
}

func TestWebhook_OtherError(t *testing.T) {
	f := newFixture(t)
	f.completer.err = errors.New("connection reset by peer")

	_, a := f.post(t, "sekrit", textUpdate(1, 2, "q"))

	if !a.OK {
		t.Errorf("ack = %+v", a)
	}
	text := f.messenger.sent[0].Text
	if !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "connection reset by peer") {
		t.Errorf("diagnostic = %q", text)
	}
}

func TestWebhook_SendErrorStillAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.completer.response = "reply"
	f.messenger.err = errors.New("bot was blocked")

	rr, a := f.post(t, "sekrit", textUpdate(1, 2, "q"))

	if rr.Code != http.StatusOK || !a.OK {
		t.Errorf("send failure must not change the acknowledgment: status=%d ack=%+v", rr.Code, a)
	}
}

func TestWebhook_ReplayIsNotDeduplicated(t *testing.T) {
	f := newFixture(t)
	f.completer.response = "reply"
	update := textUpdate(1, 2, "same question")

	f.post(t, "sekrit", update)
	f.post(t, "sekrit", update)

	if len(f.completer.prompts) != 2 {
		t.Errorf("expected 2 independent completion calls, got %d", len(f.completer.prompts))
	}
	if len(f.messenger.sent) != 2 {
		t.Errorf("expected 2 independent sends, got %d", len(f.messenger.sent))
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tutorbot_uptime_seconds") {
		t.Error("metrics page missing uptime gauge")
	}
}
