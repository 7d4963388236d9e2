package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nupi-ai/plugin-stt-leopard/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-leopard/internal/engine"
	"github.com/nupi-ai/plugin-stt-leopard/internal/telemetry"
)

// RequestIDHeader carries the caller supplied request id. One is generated
// when absent and echoed back in the response header.
const RequestIDHeader = "x-request-id"

// Server exposes an Engine over gRPC.
type Server struct {
	log     *slog.Logger
	engine  engine.Engine
	metrics *telemetry.Recorder
}

// New returns a new Server instance.
func New(logger *slog.Logger, eng engine.Engine, metrics *telemetry.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if eng == nil {
		panic("server: engine must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Server{
		log: logger.With(
			"component", "server",
			"engine_version", eng.Version(),
		),
		engine:  eng,
		metrics: metrics,
	}
}

var _ SpeechToTextServer = (*Server)(nil)

// Register attaches the service to registrar.
func Register(registrar grpc.ServiceRegistrar, srv SpeechToTextServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// Process transcribes a little-endian 16-bit PCM payload.
func (s *Server) Process(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	requestID := requestIDFromContext(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

	audio := in.GetValue()
	if len(audio)%2 != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "pcm payload has %d bytes; expected whole 16-bit samples", len(audio))
	}
	pcm := engine.PCMFromBytes(audio)

	start := time.Now()
	res, err := s.engine.Process(ctx, pcm)
	s.metrics.RecordProcess(requestID, len(pcm), len(res.Words), time.Since(start), err)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.encode(requestID, res)
}

// ProcessFile transcribes an audio file on the adapter host.
func (s *Server) ProcessFile(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	requestID := requestIDFromContext(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

	path := strings.TrimSpace(in.GetValue())
	start := time.Now()
	res, err := s.engine.ProcessFile(ctx, path)
	s.metrics.RecordProcessFile(requestID, path, len(res.Words), time.Since(start), err)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.encode(requestID, res)
}

// Info reports engine parameters clients need before sending audio.
func (s *Server) Info(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	info, err := structpb.NewStruct(map[string]any{
		"sample_rate":     s.engine.SampleRate(),
		"version":         s.engine.Version(),
		"adapter":         adapterinfo.Info.Slug,
		"adapter_version": adapterinfo.Version(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return info, nil
}

// StreamTranscription buffers PCM chunks until the client half-closes, then
// replies with a single transcript of everything received.
func (s *Server) StreamTranscription(stream grpc.ServerStream) (err error) {
	ctx := stream.Context()
	requestID := requestIDFromContext(ctx)
	if err := stream.SetHeader(metadata.Pairs(RequestIDHeader, requestID)); err != nil {
		return err
	}

	streamMetrics := s.metrics.StartStream(requestID, incomingMetadata(ctx))
	defer func() { streamMetrics.Finish(err) }()

	session := engine.NewSession(s.engine)
	for {
		chunk := new(wrapperspb.BytesValue)
		if err := stream.RecvMsg(chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			s.log.Error("failed to receive chunk", "request_id", requestID, "error", err)
			return err
		}
		streamMetrics.RecordChunk(len(chunk.GetValue()))
		session.Append(chunk.GetValue())
	}

	res, err := session.Flush(ctx)
	if err != nil {
		return toStatus(err)
	}
	streamMetrics.RecordTranscript(res.Text, len(res.Words))

	out, err := s.encode(requestID, res)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(out); err != nil {
		s.log.Error("failed to send transcript", "request_id", requestID, "error", err)
		return err
	}
	return nil
}

func (s *Server) encode(requestID string, res engine.Result) (*structpb.Struct, error) {
	words := make([]any, 0, len(res.Words))
	for _, w := range res.Words {
		words = append(words, map[string]any{
			"word":        w.Word,
			"start_sec":   w.StartSec,
			"end_sec":     w.EndSec,
			"confidence":  w.Confidence,
			"speaker_tag": w.SpeakerTag,
		})
	}
	meta := make(map[string]any)
	for k, v := range adapterinfo.TranscriptMetadata(s.engine.Version(), s.engine.SampleRate()) {
		meta[k] = v
	}
	out, err := structpb.NewStruct(map[string]any{
		"request_id": requestID,
		"text":       res.Text,
		"confidence": res.Confidence,
		"words":      words,
		"metadata":   meta,
	})
	if err != nil {
		s.log.Error("failed to encode transcript", "request_id", requestID, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func requestIDFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDHeader); len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0])
		}
	}
	return uuid.NewString()
}

func incomingMetadata(ctx context.Context) map[string]string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for key, values := range md {
		if strings.HasPrefix(key, "nupi-") && len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
