package messenger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiCall struct {
	method string
	form   map[string]string
}

func newTestMessenger(t *testing.T) (*Messenger, func() []apiCall) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []apiCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := map[string]string{}
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
		}
		mu.Lock()
		calls = append(calls, apiCall{method: r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], form: form})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":1,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("test-token", bot.WithSkipGetMe(), bot.WithServerURL(srv.URL))
	require.NoError(t, err)

	return New(b, zap.NewNop()), func() []apiCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]apiCall(nil), calls...)
	}
}

func TestMessenger_SendTextSplitsLongMessages(t *testing.T) {
	m, calls := newTestMessenger(t)

	line := strings.Repeat("я", 100)
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = line
	}
	require.NoError(t, m.SendText(context.Background(), 1, 5, strings.Join(lines, "\n")))

	got := calls()
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, "sendMessage", c.method)
		assert.Equal(t, "1", c.form["chat_id"])
		assert.Equal(t, "5", c.form["message_thread_id"])
		assert.LessOrEqual(t, len([]rune(c.form["text"])), MaxMessageLength)
	}
}

func TestMessenger_CopyMessageAsReply(t *testing.T) {
	m, calls := newTestMessenger(t)

	require.NoError(t, m.CopyMessage(context.Background(), 42, 0, 7, 100, 55))

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "copyMessage", got[0].method)
	assert.Equal(t, "42", got[0].form["chat_id"])
	assert.Equal(t, "7", got[0].form["from_chat_id"])
	assert.Equal(t, "100", got[0].form["message_id"])
	assert.Contains(t, got[0].form["reply_parameters"], `"message_id":55`)
}
