// Package apiconnect binds the messages in package api to Connect handlers
// and clients for the debtledger.v1 services.
//
// Handlers and clients speak JSON only; see api.Codec.
package apiconnect

import (
	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/pkg/api"
)

// codecs registers the JSON codec under both content-type spellings.
func codecs() connect.Option {
	return connect.WithOptions(
		connect.WithCodec(api.Codec{}),
		connect.WithCodec(api.Codec{Charset: true}),
	)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{codecs()}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}
