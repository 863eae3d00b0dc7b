package sheet

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "traitsheet.sheet.v1.SheetService"

// The service speaks protobuf well-known types: notation and ids travel as
// StringValue, assets and sheets as Struct.
const (
	methodParseAsset      = "ParseAsset"
	methodFormatAsset     = "FormatAsset"
	methodCreateCharacter = "CreateCharacter"
	methodGetCharacter    = "GetCharacter"
	methodListCharacters  = "ListCharacters"
	methodSetTerm         = "SetTerm"
	methodAddAsset        = "AddAsset"
)

// SheetServiceServer is the server API for the sheet service.
type SheetServiceServer interface {
	ParseAsset(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	FormatAsset(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	CreateCharacter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCharacter(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListCharacters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetTerm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the sheet service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SheetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodParseAsset, newStringValue, SheetServiceServer.ParseAsset),
		unary(methodFormatAsset, newStruct, SheetServiceServer.FormatAsset),
		unary(methodCreateCharacter, newStruct, SheetServiceServer.CreateCharacter),
		unary(methodGetCharacter, newStringValue, SheetServiceServer.GetCharacter),
		unary(methodListCharacters, newStruct, SheetServiceServer.ListCharacters),
		unary(methodSetTerm, newStruct, SheetServiceServer.SetTerm),
		unary(methodAddAsset, newStruct, SheetServiceServer.AddAsset),
	},
	Metadata: "traitsheet/sheet/v1/sheet.proto",
}

// RegisterSheetServiceServer registers srv on s.
func RegisterSheetServiceServer(s grpc.ServiceRegistrar, srv SheetServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method handler the protoc plugin would generate.
func unary[Req, Resp proto.Message](method string, newReq func() Req, call func(SheetServiceServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(SheetServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(Req))
			})
		},
	}
}

// SheetServiceClient calls the sheet service.
type SheetServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSheetServiceClient returns a client bound to cc.
func NewSheetServiceClient(cc grpc.ClientConnInterface) *SheetServiceClient {
	return &SheetServiceClient{cc: cc}
}

// ParseAsset parses one asset line.
func (c *SheetServiceClient) ParseAsset(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodParseAsset, in, newStruct(), opts)
}

// FormatAsset renders an asset from its parts.
func (c *SheetServiceClient) FormatAsset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[*wrapperspb.StringValue](ctx, c.cc, methodFormatAsset, in, newStringValue(), opts)
}

// CreateCharacter stores a new, empty sheet.
func (c *SheetServiceClient) CreateCharacter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodCreateCharacter, in, newStruct(), opts)
}

// GetCharacter loads one sheet by id.
func (c *SheetServiceClient) GetCharacter(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodGetCharacter, in, newStruct(), opts)
}

// ListCharacters pages through stored characters.
func (c *SheetServiceClient) ListCharacters(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodListCharacters, in, newStruct(), opts)
}

// SetTerm rates a skill or attribute, or sets a drive statement.
func (c *SheetServiceClient) SetTerm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodSetTerm, in, newStruct(), opts)
}

// AddAsset adds an asset written in notation.
func (c *SheetServiceClient) AddAsset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[*structpb.Struct](ctx, c.cc, methodAddAsset, in, newStruct(), opts)
}

func invoke[Resp proto.Message](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, out Resp, opts []grpc.CallOption) (Resp, error) {
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return out, nil
}
