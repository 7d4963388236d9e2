package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "leopard.v1.SpeechToText"

// Full method names, for clients built on grpc.ClientConn.Invoke.
const (
	ProcessMethod             = "/" + ServiceName + "/Process"
	ProcessFileMethod         = "/" + ServiceName + "/ProcessFile"
	InfoMethod                = "/" + ServiceName + "/Info"
	StreamTranscriptionMethod = "/" + ServiceName + "/StreamTranscription"
)

// SpeechToTextServer is the server API for the service.
type SpeechToTextServer interface {
	Process(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	ProcessFile(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Info(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StreamTranscription(grpc.ServerStream) error
}

// ServiceDesc describes the service using well-known message types only, so
// no generated code is required on either side.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpeechToTextServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Process", Handler: processHandler},
		{MethodName: "ProcessFile", Handler: processFileHandler},
		{MethodName: "Info", Handler: infoHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamTranscription",
			Handler:       streamTranscriptionHandler,
			ClientStreams: true,
		},
	},
	Metadata: "leopard/v1/speech_to_text.proto",
}

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SpeechToTextServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProcessMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SpeechToTextServer).Process(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func processFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SpeechToTextServer).ProcessFile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProcessFileMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SpeechToTextServer).ProcessFile(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func infoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SpeechToTextServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InfoMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SpeechToTextServer).Info(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func streamTranscriptionHandler(srv any, stream grpc.ServerStream) error {
	return srv.(SpeechToTextServer).StreamTranscription(stream)
}
