// Package rpc wires Connect unary handlers over plain JSON messages.
//
// The service layer exchanges ordinary Go structs; a custom codec feeds
// them through encoding/json instead of protobuf, which keeps the wire
// format identical to what the mobile app already speaks while keeping
// Connect's routing, error model and interceptors.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// NewHandler builds a Connect unary handler for one procedure, e.g.
// "/journi.v1.TripService/CreateTrip". The returned path is the mux
// pattern to mount the handler on.
func NewHandler[Req, Res any](
	procedure string,
	unary func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	return procedure, connect.NewUnaryHandler(procedure, unary, opts...)
}
