package api

import (
	"bytes"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Timestamp is an instant carried in the google.protobuf.Timestamp JSON form:
// an RFC 3339 string in UTC, years 0001 to 9999.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// TimePtr returns the wrapped time, or nil when ts is nil.
func (ts *Timestamp) TimePtr() *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	pb := timestamppb.New(ts.Time)
	if err := pb.CheckValid(); err != nil {
		return nil, fmt.Errorf("timestamp %s: %w", ts.Time.Format(time.RFC3339), err)
	}
	return protojson.Marshal(pb)
}

// UnmarshalJSON implements json.Unmarshaler. null leaves ts unchanged.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var pb timestamppb.Timestamp
	if err := protojson.Unmarshal(data, &pb); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	ts.Time = pb.AsTime()
	return nil
}
