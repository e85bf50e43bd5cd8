package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/journi-app/journi/internal/auth"
	"github.com/journi-app/journi/internal/blob"
	"github.com/journi-app/journi/internal/ledger"
	"github.com/journi-app/journi/internal/metrics"
	"github.com/journi-app/journi/internal/middleware"
	"github.com/journi-app/journi/internal/models"
	"github.com/journi-app/journi/internal/session"
	"github.com/journi-app/journi/internal/storage"
	"github.com/journi-app/journi/internal/trip"
)

// TripService manages trips and the structured operation surface the
// mobile app uses alongside the chat.
type TripService struct {
	store    storage.Store
	sessions *session.Manager
	uploader blob.Uploader
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewTripService creates the trip service. uploader may be nil when no
// blob storage is configured; photo uploads are then rejected.
func NewTripService(store storage.Store, sessions *session.Manager, uploader blob.Uploader, collector *metrics.Collector, logger *slog.Logger) *TripService {
	return &TripService{
		store:    store,
		sessions: sessions,
		uploader: uploader,
		metrics:  collector,
		logger:   logger,
	}
}

func callerIdentity(ctx context.Context) (*auth.Identity, error) {
	identity := middleware.GetIdentity(ctx)
	if identity == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return identity, nil
}

// actorName is the display name recorded on ledger entries and photos.
func actorName(identity *auth.Identity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UserID
}

// CreateTrip opens a new trip with the caller as creator and first
// participant.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[CreateTripRequest]) (*connect.Response[TripResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("trip name is required"))
	}

	t := &models.Trip{
		Name:         req.Msg.Name,
		Destination:  req.Msg.Destination,
		CreatorID:    identity.UserID,
		Participants: []string{identity.UserID},
	}
	if err := s.store.CreateTrip(ctx, t); err != nil {
		s.logger.Error("CreateTrip failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Trip created", "trip_id", t.ID, "session_code", t.SessionCode, "creator", identity.UserID)
	return connect.NewResponse(&TripResponse{Trip: t}), nil
}

// JoinTrip adds the caller to the trip behind a session code.
func (s *TripService) JoinTrip(ctx context.Context, req *connect.Request[JoinTripRequest]) (*connect.Response[TripResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.store.GetTripByCode(ctx, req.Msg.SessionCode)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no trip with that code"))
	}
	if t.Status == models.TripFinalized {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("trip is finalized"))
	}

	if err := s.store.AddParticipant(ctx, t.ID, identity.UserID); err != nil {
		s.logger.Error("JoinTrip failed", "trip_id", t.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	t, err = s.store.GetTrip(ctx, t.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.logger.Info("User joined trip", "trip_id", t.ID, "user_id", identity.UserID)
	return connect.NewResponse(&TripResponse{Trip: t}), nil
}

// GetTrip returns one of the caller's trips.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[GetTripRequest]) (*connect.Response[TripResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.authorizedTrip(ctx, req.Msg.TripID, identity)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&TripResponse{Trip: t}), nil
}

// ListTrips returns the caller's trips.
func (s *TripService) ListTrips(ctx context.Context, _ *connect.Request[ListTripsRequest]) (*connect.Response[ListTripsResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	trips, err := s.store.ListTripsByUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("ListTrips failed", "user_id", identity.UserID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListTripsResponse{Trips: trips}), nil
}

// Apply runs one structured operation against the trip's session.
func (s *TripService) Apply(ctx context.Context, req *connect.Request[OpRequest]) (*connect.Response[OpResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedTrip(ctx, req.Msg.TripID, identity); err != nil {
		return nil, err
	}

	op, ok := req.Msg.op()
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("request carries no operation"))
	}

	start := time.Now()
	res, err := s.sessions.Apply(ctx, req.Msg.TripID, actorName(identity), op)
	s.metrics.ObserveOp(opName(op), time.Since(start), err)
	if err != nil {
		return nil, opError(err)
	}
	return connect.NewResponse(&OpResponse{Result: res}), nil
}

// UploadPhoto stores the image bytes and queues them on the session for
// the next register-photo operation.
func (s *TripService) UploadPhoto(ctx context.Context, req *connect.Request[UploadPhotoRequest]) (*connect.Response[UploadPhotoResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedTrip(ctx, req.Msg.TripID, identity); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("photo storage is not configured"))
	}
	if len(req.Msg.Data) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("photo data is empty"))
	}

	name := req.Msg.FileName
	if name == "" {
		name = "photo"
	}
	storagePath := fmt.Sprintf("trips/%s/%s%s", req.Msg.TripID, uuid.New().String(), path.Ext(name))

	uploaded, err := s.uploader.Upload(ctx, storagePath, bytes.NewReader(req.Msg.Data))
	if err != nil {
		s.logger.Error("UploadPhoto failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.sessions.QueueUpload(ctx, req.Msg.TripID, uploaded.URL, uploaded.Path); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Photo uploaded", "trip_id", req.Msg.TripID, "path", uploaded.Path)
	return connect.NewResponse(&UploadPhotoResponse{URL: uploaded.URL, Path: uploaded.Path}), nil
}

// FinalizeTrip closes the trip: the catalog is archived to durable
// storage and the final settlement plan is returned.
func (s *TripService) FinalizeTrip(ctx context.Context, req *connect.Request[FinalizeTripRequest]) (*connect.Response[FinalizeTripResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.authorizedTrip(ctx, req.Msg.TripID, identity)
	if err != nil {
		return nil, err
	}
	if t.Status == models.TripFinalized {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("trip is already finalized"))
	}

	var transfers map[string][]ledger.Transfer
	err = s.sessions.WithState(ctx, t.ID, func(state *trip.State) error {
		transfers = ledger.Settle(state.Balances)
		return s.store.ArchiveCatalog(ctx, t.ID, state.Milestones, state.Photos)
	})
	if err != nil {
		s.logger.Error("FinalizeTrip archive failed", "trip_id", t.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if err := s.store.FinalizeTrip(ctx, t.ID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	t.Status = models.TripFinalized

	s.logger.Info("Trip finalized", "trip_id", t.ID)
	return connect.NewResponse(&FinalizeTripResponse{Trip: t, Transfers: transfers}), nil
}

// DeleteTrip removes a trip and drops its session. Only the creator may
// delete.
func (s *TripService) DeleteTrip(ctx context.Context, req *connect.Request[DeleteTripRequest]) (*connect.Response[DeleteTripResponse], error) {
	identity, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.authorizedTrip(ctx, req.Msg.TripID, identity)
	if err != nil {
		return nil, err
	}
	if t.CreatorID != identity.UserID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the creator can delete a trip"))
	}

	if err := s.store.DeleteTrip(ctx, t.ID); err != nil {
		s.logger.Error("DeleteTrip failed", "trip_id", t.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.sessions.Reset(ctx, t.ID); err != nil {
		s.logger.Error("Session reset failed after delete", "trip_id", t.ID, "error", err)
	}

	s.logger.Info("Trip deleted", "trip_id", t.ID, "user_id", identity.UserID)
	return connect.NewResponse(&DeleteTripResponse{}), nil
}

// authorizedTrip loads a trip and checks the caller participates in it.
func (s *TripService) authorizedTrip(ctx context.Context, tripID string, identity *auth.Identity) (*models.Trip, error) {
	if tripID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("trip_id is required"))
	}
	t, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("trip not found"))
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	for _, userID := range t.Participants {
		if userID == identity.UserID {
			return t, nil
		}
	}
	return nil, connect.NewError(connect.CodePermissionDenied, errors.New("not a participant of this trip"))
}

// opError maps session errors onto Connect codes.
func opError(err error) error {
	var verr *trip.ValidationError
	if errors.As(err, &verr) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	var nf *trip.NotFoundError
	if errors.As(err, &nf) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
