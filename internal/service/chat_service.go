package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/journi-app/journi/internal/agent"
	"github.com/journi-app/journi/internal/blob"
	"github.com/journi-app/journi/internal/session"
	"github.com/journi-app/journi/internal/storage"
)

// ChatService is the conversational surface: free-form messages go to
// the agent, which records what it understood through tool calls.
type ChatService struct {
	agent    *agent.Agent
	sessions *session.Manager
	store    storage.Store
	uploader blob.Uploader
	logger   *slog.Logger
}

// NewChatService creates the chat service.
func NewChatService(a *agent.Agent, sessions *session.Manager, store storage.Store, uploader blob.Uploader, logger *slog.Logger) *ChatService {
	return &ChatService{
		agent:    a,
		sessions: sessions,
		store:    store,
		uploader: uploader,
		logger:   logger,
	}
}

// SendMessage forwards one utterance to the agent and returns its reply.
func (s *ChatService) SendMessage(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.Text == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("message text is required"))
	}
	if err := s.authorize(ctx, req.Msg.TripID, identity.UserID); err != nil {
		return nil, err
	}

	reply, err := s.agent.HandleMessage(ctx, req.Msg.TripID, actorName(identity), req.Msg.Text)
	if err != nil {
		s.logger.Error("Chat message failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ChatResponse{Reply: reply}), nil
}

// SendPhoto uploads the image, queues it on the session, and lets the
// agent analyze and register it.
func (s *ChatService) SendPhoto(ctx context.Context, req *connect.Request[ChatPhotoRequest]) (*connect.Response[ChatResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.Data) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("photo data is empty"))
	}
	if err := s.authorize(ctx, req.Msg.TripID, identity.UserID); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("photo storage is not configured"))
	}

	storagePath := fmt.Sprintf("trips/%s/%s", req.Msg.TripID, uuid.New().String())
	uploaded, err := s.uploader.Upload(ctx, storagePath, bytes.NewReader(req.Msg.Data))
	if err != nil {
		s.logger.Error("Chat photo upload failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.sessions.QueueUpload(ctx, req.Msg.TripID, uploaded.URL, uploaded.Path); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	reply, err := s.agent.HandlePhoto(ctx, req.Msg.TripID, actorName(identity), req.Msg.Caption, req.Msg.ContentType, req.Msg.Data)
	if err != nil {
		s.logger.Error("Chat photo failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ChatResponse{Reply: reply}), nil
}

func (s *ChatService) authorize(ctx context.Context, tripID, userID string) error {
	if tripID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("trip_id is required"))
	}
	t, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return connect.NewError(connect.CodeNotFound, errors.New("trip not found"))
		}
		return connect.NewError(connect.CodeInternal, err)
	}
	for _, p := range t.Participants {
		if p == userID {
			return nil
		}
	}
	return connect.NewError(connect.CodePermissionDenied, errors.New("not a participant of this trip"))
}
