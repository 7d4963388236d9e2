package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

// toStatus maps engine failures onto gRPC codes. The message is the rendered
// error, so native diagnostics reach the client.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeFor(err), err.Error())
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}

	var lerr *leopard.Error
	if !errors.As(err, &lerr) {
		return codes.Internal
	}
	switch lerr.Kind {
	case leopard.KindArgument, leopard.KindFrameLength:
		return codes.InvalidArgument
	case leopard.KindInvalidState:
		return codes.FailedPrecondition
	case leopard.KindLibraryLoad:
		return codes.Unavailable
	case leopard.KindLibrary:
		switch lerr.Status {
		case leopard.StatusInvalidArgument:
			return codes.InvalidArgument
		case leopard.StatusIOError, leopard.StatusKeyError:
			return codes.NotFound
		case leopard.StatusInvalidState:
			return codes.FailedPrecondition
		case leopard.StatusActivationError, leopard.StatusActivationRefused:
			return codes.PermissionDenied
		case leopard.StatusActivationLimitReached, leopard.StatusActivationThrottled, leopard.StatusOutOfMemory:
			return codes.ResourceExhausted
		}
	}
	return codes.Internal
}
