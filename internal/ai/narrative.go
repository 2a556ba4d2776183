package ai

import (
	"context"

	"github.com/spigell/retentioniq/internal/attrition"
)

// Narrative is the text shown next to a prediction. A failed call still
// produces a narrative; Failed tells the caller that Content is an error
// message.
type Narrative struct {
	Content string `json:"content"`
	Failed  bool   `json:"failed"`
}

// Explainer turns a risk probability into a written assessment.
type Explainer interface {
	Explain(ctx context.Context, probability float64, record *attrition.Record) Narrative
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
