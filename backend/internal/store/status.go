package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
)

// Status converts a repository error into a gRPC status error for the
// service layer. what names the entity in the NotFound message. Anything that
// is not a known sentinel is logged with op and hidden behind a generic
// Internal error. Errors that already carry a status pass through.
func Status(op string, err error, what string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Errorf(codes.NotFound, "%s not found", what)
	case errors.Is(err, ErrDuplicate):
		return status.Errorf(codes.AlreadyExists, "%s already exists", what)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Str("op", op).Msg("store call timed out")
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, mongo.ErrClientDisconnected), mongo.IsNetworkError(err):
		logger.Error().Err(err).Str("op", op).Msg("store unavailable")
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	}
	return Internal(op, err)
}

// Internal logs err and returns the generic Internal status.
func Internal(op string, err error) error {
	logger.Error().Err(err).Str("op", op).Msg("persistence error")
	return status.Error(codes.Internal, "internal server error")
}
