// Package insights holds the free-form HR analytics conversation.
package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/utils"
)

const (
	instruction = "You are an HR analytics assistant. " +
		"Answer questions related to human resources, employee attrition, workplace trends, " +
		"and HR best practices. Provide clear, actionable insights, reasoning, and data-driven suggestions when possible."

	errorPrefix = "An error occurred: "
	maxLogLen   = 200
)

// ErrEmptyQuestion is returned for blank input; nothing is recorded.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Replier answers a message given the earlier turns.
type Replier interface {
	Chat(ctx context.Context, history []ai.Turn, message string) (string, error)
}

// Chat is the process-wide conversation. Questions are answered one at a
// time so that every user entry is directly followed by its reply.
type Chat struct {
	replier    Replier
	preview    string
	transcript *Transcript
	logger     *zap.Logger
	metrics    *metrics.Recorder

	askMu sync.Mutex
}

// NewChat creates a conversation. preview is a text rendering of the first
// dataset rows and is included with every question.
func NewChat(replier Replier, preview string, logger *zap.Logger, rec *metrics.Recorder) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		replier:    replier,
		preview:    strings.TrimSpace(preview),
		transcript: NewTranscript(),
		logger:     logger,
		metrics:    rec,
	}
}

// Ask records the question and the reply. A failed reply is recorded as an
// assistant entry with the error text; Ask itself only fails on blank input.
func (c *Chat) Ask(ctx context.Context, question string) (Entry, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Entry{}, ErrEmptyQuestion
	}

	c.askMu.Lock()
	defer c.askMu.Unlock()

	history := c.transcript.Turns()
	c.transcript.Append(ai.RoleUser, question, false)

	reply, err := c.reply(ctx, history, question)
	if err != nil {
		c.logger.Warn("insights chat failed", zap.Error(err))
		c.metrics.RecordChatTurn(true)
		return c.transcript.Append(ai.RoleAssistant, errorPrefix+err.Error(), true), nil
	}

	c.logger.Debug("insights chat reply",
		zap.Int("response_length", utf8.RuneCountInString(reply)),
		zap.String("response_preview", utils.TruncateForLog(reply, maxLogLen)),
	)
	c.metrics.RecordChatTurn(false)

	return c.transcript.Append(ai.RoleAssistant, reply, false), nil
}

func (c *Chat) reply(ctx context.Context, history []ai.Turn, question string) (string, error) {
	if c.replier == nil {
		return "", errors.New("chat assistant is not configured")
	}
	return c.replier.Chat(ctx, history, c.prompt(question))
}

func (c *Chat) prompt(question string) string {
	var b strings.Builder
	b.WriteString(instruction)
	if c.preview != "" {
		b.WriteString("\n\nDataset preview:\n")
		b.WriteString(c.preview)
	}
	b.WriteString("\n\nUser question: ")
	b.WriteString(question)
	return b.String()
}

func (c *Chat) History() []Entry {
	return c.transcript.Entries()
}

func (c *Chat) Clear() {
	c.askMu.Lock()
	defer c.askMu.Unlock()

	c.transcript.Clear()
	c.logger.Info("insights chat cleared")
}
