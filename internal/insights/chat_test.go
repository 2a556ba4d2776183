package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/retentioniq/internal/ai"
)

type fakeReplier struct {
	mu        sync.Mutex
	reply     string
	err       error
	histories [][]ai.Turn
	messages  []string
}

func (f *fakeReplier) Chat(_ context.Context, history []ai.Turn, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, history)
	f.messages = append(f.messages, message)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAskRecordsBothTurns(t *testing.T) {
	replier := &fakeReplier{reply: "Sales has the highest attrition."}
	chat := NewChat(replier, "Age Attrition\n41  Yes", nil, nil)

	entry, err := chat.Ask(context.Background(), "  Which department churns most? ")
	require.NoError(t, err)
	assert.Equal(t, ai.RoleAssistant, entry.Role)
	assert.False(t, entry.Failed)

	history := chat.History()
	require.Len(t, history, 2)
	assert.Equal(t, ai.RoleUser, history[0].Role)
	assert.Equal(t, "Which department churns most?", history[0].Content)
	assert.Equal(t, "Sales has the highest attrition.", history[1].Content)
	assert.NotEqual(t, history[0].ID, history[1].ID)

	msg := replier.messages[0]
	assert.True(t, strings.HasPrefix(msg, "You are an HR analytics assistant."))
	assert.Contains(t, msg, "Dataset preview:\nAge Attrition\n41  Yes")
	assert.True(t, strings.HasSuffix(msg, "User question: Which department churns most?"))
}

func TestAskPassesEarlierTurns(t *testing.T) {
	replier := &fakeReplier{reply: "ok"}
	chat := NewChat(replier, "", nil, nil)

	_, err := chat.Ask(context.Background(), "first")
	require.NoError(t, err)
	_, err = chat.Ask(context.Background(), "second")
	require.NoError(t, err)

	assert.Empty(t, replier.histories[0])
	assert.Equal(t, []ai.Turn{
		{Role: ai.RoleUser, Content: "first"},
		{Role: ai.RoleAssistant, Content: "ok"},
	}, replier.histories[1])
	assert.NotContains(t, replier.messages[1], "Dataset preview")
}

func TestAskRecordsFailure(t *testing.T) {
	replier := &fakeReplier{err: errors.New("quota exhausted")}
	chat := NewChat(replier, "", nil, nil)

	entry, err := chat.Ask(context.Background(), "why?")
	require.NoError(t, err)
	assert.True(t, entry.Failed)
	assert.Equal(t, "An error occurred: quota exhausted", entry.Content)
	assert.Len(t, chat.History(), 2)

	replier.err = nil
	replier.reply = "fine"
	_, err = chat.Ask(context.Background(), "again")
	require.NoError(t, err)
	assert.Empty(t, replier.histories[1], "a failed exchange is not replayed")
}

func TestTurnsAlternateAfterFailure(t *testing.T) {
	replier := &fakeReplier{reply: "first answer"}
	chat := NewChat(replier, "", nil, nil)

	_, err := chat.Ask(context.Background(), "q1")
	require.NoError(t, err)

	replier.err = errors.New("503 unavailable")
	_, err = chat.Ask(context.Background(), "q2")
	require.NoError(t, err)

	replier.err = nil
	replier.reply = "third answer"
	_, err = chat.Ask(context.Background(), "q3")
	require.NoError(t, err)

	history := replier.histories[2]
	assert.Equal(t, []ai.Turn{
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, Content: "first answer"},
	}, history)
	for i := 1; i < len(history); i++ {
		assert.NotEqual(t, history[i-1].Role, history[i].Role, "turn %d repeats a role", i)
	}

	assert.Len(t, chat.History(), 6, "the transcript keeps every entry")
}

func TestAskWithoutReplier(t *testing.T) {
	chat := NewChat(nil, "", nil, nil)

	entry, err := chat.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, entry.Failed)
	assert.True(t, strings.HasPrefix(entry.Content, errorPrefix))
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	chat := NewChat(&fakeReplier{reply: "x"}, "", nil, nil)

	_, err := chat.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, chat.History())
}

func TestClearEmptiesHistory(t *testing.T) {
	chat := NewChat(&fakeReplier{reply: "x"}, "", nil, nil)
	_, _ = chat.Ask(context.Background(), "one")

	chat.Clear()
	assert.Empty(t, chat.History())
}

func TestConcurrentAsksStayPaired(t *testing.T) {
	chat := NewChat(&fakeReplier{reply: "answer"}, "", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = chat.Ask(context.Background(), "question")
		}()
	}
	wg.Wait()

	history := chat.History()
	require.Len(t, history, 40)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, ai.RoleUser, history[i].Role)
		assert.Equal(t, ai.RoleAssistant, history[i+1].Role)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	chat := NewChat(&fakeReplier{reply: "x"}, "", nil, nil)
	_, _ = chat.Ask(context.Background(), "one")

	h := chat.History()
	h[0].Content = "mutated"
	assert.Equal(t, "one", chat.History()[0].Content)
}
