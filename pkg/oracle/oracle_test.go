package oracle

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient is a testify mock for the Client interface.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Generate(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

// memLog is a minimal concurrent-safe CallLog for tests.
type memLog struct {
	mu   sync.Mutex
	recs []CallRecord
}

func (l *memLog) Append(rec CallRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
}

func TestAudited_RecordsSuccess(t *testing.T) {
	mc := new(MockClient)
	mc.On("Generate", mock.Anything, mock.Anything).Return(&Response{
		Text:  "THEME 1: Learning",
		Model: "claude-haiku-4-5-20251001",
		Usage: TokenUsage{InputTokens: 120, OutputTokens: 30},
	}, nil)

	log := &memLog{}
	client := Audited(mc, log)

	resp, err := client.Generate(context.Background(), Request{
		Prompt: "identify themes",
		System: "you are a researcher",
	})
	require.NoError(t, err)
	assert.Equal(t, "THEME 1: Learning", resp.Text)

	require.Len(t, log.recs, 1)
	rec := log.recs[0]
	assert.Equal(t, "identify themes", rec.Prompt)
	assert.Equal(t, "you are a researcher", rec.System)
	assert.Equal(t, "THEME 1: Learning", rec.ResponseText)
	assert.Empty(t, rec.Error)
	assert.Equal(t, int64(120), rec.InputTokens)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestAudited_RecordsFailure(t *testing.T) {
	mc := new(MockClient)
	mc.On("Generate", mock.Anything, mock.Anything).Return(nil,
		&UnavailableError{Err: eris.New("connection refused")})

	log := &memLog{}
	client := Audited(mc, log)

	_, err := client.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	require.Len(t, log.recs, 1)
	assert.Empty(t, log.recs[0].ResponseText)
	assert.Contains(t, log.recs[0].Error, "connection refused")
}

func TestAudited_NilLogPassthrough(t *testing.T) {
	mc := new(MockClient)
	assert.Same(t, Client(mc), Audited(mc, nil))
}

func TestAudited_ConcurrentAppend(t *testing.T) {
	mc := new(MockClient)
	mc.On("Generate", mock.Anything, mock.Anything).Return(&Response{Text: "ok"}, nil)

	log := &memLog{}
	client := Audited(mc, log)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Generate(context.Background(), Request{Prompt: "p"})
		}()
	}
	wg.Wait()

	assert.Len(t, log.recs, 20)
}

func TestErrorTaxonomy(t *testing.T) {
	unavailable := &UnavailableError{Err: eris.New("down")}
	rejected := &RequestError{Err: eris.New("bad params")}

	assert.True(t, IsUnavailable(unavailable))
	assert.False(t, IsUnavailable(rejected))
	assert.True(t, IsRequestError(rejected))
	assert.False(t, IsRequestError(unavailable))

	wrapped := eris.Wrap(unavailable, "assignment pass")
	assert.True(t, IsUnavailable(wrapped))
}

func TestConversation_Observe(t *testing.T) {
	var conv Conversation
	conv.Observe("first prompt", "first reply")
	conv.Observe("second prompt", "second reply")

	turns := conv.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, Turn{Role: "user", Content: "first prompt"}, turns[0])
	assert.Equal(t, Turn{Role: "assistant", Content: "first reply"}, turns[1])
	assert.Equal(t, "second prompt", turns[2].Content)
	assert.Equal(t, 4, conv.Len())
}

func TestConversation_NilSafe(t *testing.T) {
	var conv *Conversation
	conv.Observe("p", "r")
	assert.Nil(t, conv.Turns())
	assert.Zero(t, conv.Len())
}
