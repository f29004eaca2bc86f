package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// replyScanLimit bounds how many recent thread messages are inspected when
// looking for a run's reply.
const replyScanLimit = 20

// OpenAIAssistants implements AssistantClient on the OpenAI Assistants API.
type OpenAIAssistants struct {
	client *openai.Client
}

// NewOpenAIAssistants creates a client. baseURL is optional and points the
// client at a compatible gateway.
func NewOpenAIAssistants(apiKey, baseURL string) (*OpenAIAssistants, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIAssistants{client: openai.NewClientWithConfig(cfg)}, nil
}

// CreateThread opens an empty thread.
func (c *OpenAIAssistants) CreateThread(ctx context.Context) (string, error) {
	th, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", err
	}
	return th.ID, nil
}

// ThreadExists retrieves the thread. 404 and 400 answers mean the id is
// unknown or malformed.
func (c *OpenAIAssistants) ThreadExists(ctx context.Context, threadID string) (bool, error) {
	if strings.TrimSpace(threadID) == "" {
		return false, nil
	}
	_, err := c.client.RetrieveThread(ctx, threadID)
	if err == nil {
		return true, nil
	}
	switch statusCode(err) {
	case http.StatusNotFound, http.StatusBadRequest:
		return false, nil
	}
	return false, err
}

// AddUserMessage appends a user message to the thread.
func (c *OpenAIAssistants) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	return err
}

// StartRun creates a run with per-run instructions.
func (c *OpenAIAssistants) StartRun(ctx context.Context, threadID, assistantID, instructions string) (Run, error) {
	r, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:  assistantID,
		Instructions: instructions,
	})
	if err != nil {
		return Run{}, err
	}
	return fromOpenAIRun(r), nil
}

// GetRun retrieves the run.
func (c *OpenAIAssistants) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	r, err := c.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, err
	}
	return fromOpenAIRun(r), nil
}

// Reply lists the newest messages on the thread and returns the text of the
// first assistant message that belongs to runID.
func (c *OpenAIAssistants) Reply(ctx context.Context, threadID, runID string) (string, error) {
	limit := replyScanLimit
	order := "desc"
	list, err := c.client.ListMessage(ctx, threadID, &limit, &order, nil, nil)
	if err != nil {
		return "", err
	}
	for _, m := range list.Messages {
		if m.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		if m.RunID != nil && runID != "" && *m.RunID != runID {
			continue
		}
		if text := messageText(m); text != "" {
			return text, nil
		}
	}
	return "", ErrNoReply
}

func messageText(m openai.Message) string {
	var parts []string
	for _, content := range m.Content {
		if content.Text != nil && content.Text.Value != "" {
			parts = append(parts, content.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// statusCode extracts the HTTP status from a go-openai error, or 0.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func fromOpenAIRun(r openai.Run) Run {
	out := Run{ID: r.ID, ThreadID: r.ThreadID, Status: RunStatus(r.Status)}
	if r.LastError != nil {
		out.LastError = r.LastError.Message
	}
	return out
}
