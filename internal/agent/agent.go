// Package agent turns chat messages into ledger and catalog operations
// through Gemini tool calling. The model decides which tools to call;
// every mutation still goes through the session manager, so the agent
// can never corrupt a snapshot.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/journi-app/journi/internal/metrics"
	"github.com/journi-app/journi/internal/session"
)

const systemPrompt = `You are Journi, a group travel assistant living in a group chat.
The group registers shared expenses, payments between friends, trip milestones and photos by talking to you.

Rules:
- Every expense, payment, milestone or photo the users mention must be recorded with the matching tool. Never just acknowledge without calling a tool.
- Users write informally and often in Spanish. "pagué 50 por el taxi" is an expense of 50 paid by the speaker.
- When the payer is not named, the speaker paid. When no one to split with is named, leave the split empty so it covers the whole group.
- "lo último" / "the last one" means ID "last".
- Answer briefly in the language the user wrote in, and include the tool's summary of what was recorded.
- If a tool reports an error, explain it to the user instead of retrying blindly.`

// maxToolRounds bounds the tool-call loop for a single user message.
const maxToolRounds = 8

// Agent drives one Gemini chat per conversation thread.
type Agent struct {
	client   *genai.Client
	models   []string
	sessions *session.Manager
	metrics  *metrics.Collector
	logger   *slog.Logger

	mu    sync.Mutex
	chats map[string]*threadChat
}

type threadChat struct {
	chat     *genai.Chat
	modelIdx int
}

// New creates an agent. models is the ordered preference list; the agent
// falls through it when a model is out of quota.
func New(client *genai.Client, models []string, sessions *session.Manager, collector *metrics.Collector, logger *slog.Logger) (*Agent, error) {
	if len(models) == 0 {
		return nil, errors.New("agent: at least one model is required")
	}
	return &Agent{
		client:   client,
		models:   models,
		sessions: sessions,
		metrics:  collector,
		logger:   logger,
		chats:    make(map[string]*threadChat),
	}, nil
}

func (a *Agent) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{FunctionDeclarations: Declarations()},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
}

func (a *Agent) chatFor(ctx context.Context, threadID string) (*threadChat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tc, ok := a.chats[threadID]
	if ok && tc.chat != nil {
		return tc, nil
	}
	if tc == nil {
		tc = &threadChat{}
		a.chats[threadID] = tc
	}
	chat, err := a.client.Chats.Create(ctx, a.models[tc.modelIdx], a.config(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	tc.chat = chat
	return tc, nil
}

// fallback moves the thread to the next model. Chat history is lost on
// fallback; the session snapshot is not, so recorded data survives.
func (a *Agent) fallback(ctx context.Context, threadID string, tc *threadChat) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tc.modelIdx+1 >= len(a.models) {
		return errors.New("all models exhausted")
	}
	tc.modelIdx++
	a.metrics.ModelFallbacks.Inc()
	a.logger.Warn("falling back to next model", "thread_id", threadID, "model", a.models[tc.modelIdx])

	chat, err := a.client.Chats.Create(ctx, a.models[tc.modelIdx], a.config(), nil)
	if err != nil {
		return fmt.Errorf("failed to create fallback chat: %w", err)
	}
	tc.chat = chat
	return nil
}

// HandleMessage processes one user utterance and returns the assistant's
// reply.
func (a *Agent) HandleMessage(ctx context.Context, threadID, actor, text string) (string, error) {
	return a.handle(ctx, threadID, actor, &genai.Part{Text: fmt.Sprintf("%s: %s", actor, text)})
}

// HandlePhoto processes a photo message. The image bytes must already be
// uploaded and queued on the session; the model's register_photo call
// will attach them.
func (a *Agent) HandlePhoto(ctx context.Context, threadID, actor, caption, mimeType string, image []byte) (string, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: fmt.Sprintf("%s sent this photo. Caption: %q. Describe it, tag it, note who appears, and register it.", actor, caption)},
	}
	return a.handle(ctx, threadID, actor, parts...)
}

func (a *Agent) handle(ctx context.Context, threadID, actor string, parts ...*genai.Part) (string, error) {
	tc, err := a.chatFor(ctx, threadID)
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.send(ctx, threadID, tc, parts...)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("empty model response")
		}

		content := resp.Candidates[0].Content
		calls := functionCalls(content)
		if len(calls) == 0 {
			return collectText(content), nil
		}

		parts = parts[:0]
		for _, call := range calls {
			parts = append(parts, &genai.Part{FunctionResponse: a.dispatch(ctx, threadID, actor, call)})
		}
	}
	return "", fmt.Errorf("model did not settle after %d tool rounds", maxToolRounds)
}

// send retries through the model preference list on quota errors.
func (a *Agent) send(ctx context.Context, threadID string, tc *threadChat, parts ...*genai.Part) (*genai.GenerateContentResponse, error) {
	for {
		model := a.models[tc.modelIdx]
		resp, err := tc.chat.Send(ctx, parts...)
		if err == nil {
			a.metrics.ModelCalls.WithLabelValues(model, "ok").Inc()
			return resp, nil
		}
		if !isQuotaError(err) {
			a.metrics.ModelCalls.WithLabelValues(model, "error").Inc()
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		a.metrics.ModelCalls.WithLabelValues(model, "quota").Inc()
		if fbErr := a.fallback(ctx, threadID, tc); fbErr != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}
	}
}

// dispatch applies one tool call and packages the outcome for the model.
// Operation errors go back to the model as tool output, not up the
// stack, so it can rephrase them for the user.
func (a *Agent) dispatch(ctx context.Context, threadID, actor string, call *genai.FunctionCall) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: call.ID, Name: call.Name}

	op, err := OpFromCall(call.Name, call.Args)
	if err != nil {
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}

	res, err := a.sessions.Apply(ctx, threadID, actor, op)
	if err != nil {
		a.logger.Warn("tool call rejected", "thread_id", threadID, "tool", call.Name, "error", err)
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}

	fresp.Response = map[string]any{"output": res.Summary}
	return fresp
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func collectText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// isQuotaError reports whether the model rejected the call for quota or
// rate limiting, in which case the next model in the list may still work.
func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota")
}
