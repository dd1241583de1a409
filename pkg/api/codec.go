// Package api defines the wire messages of the debtledger Connect services.
//
// Messages are plain Go structs carried as JSON. Money fields are decimals
// encoded as strings so no precision is lost in transit; instants use the
// google.protobuf.Timestamp JSON form (see Timestamp).
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// CodecName is the Connect codec name for application/json.
	CodecName = "json"
	// CharsetCodecName matches clients that send an explicit charset.
	CharsetCodecName = "json; charset=utf-8"
)

// Codec is a Connect codec for the messages in this package.
type Codec struct {
	// Charset registers the codec under CharsetCodecName instead of CodecName.
	Charset bool
}

// Name implements connect.Codec.
func (c Codec) Name() string {
	if c.Charset {
		return CharsetCodecName
	}
	return CodecName
}

// Marshal implements connect.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements connect.Codec. Unknown fields are ignored.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}
