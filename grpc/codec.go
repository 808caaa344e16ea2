// Package ledgergrpc carries the ledgerkit lifecycle over gRPC.
//
// Messages are the plain structs from the types package, encoded with
// cramberry through a registered gRPC codec, so there is no protobuf
// generation step. Typed lifecycle errors travel as status codes with
// their fields in trailers and are rebuilt on the client side.
package ledgergrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype used by both ends.
const CodecName = "cramberry"

// CramberryCodec is the encoding.Codec for every ledgerkit message.
type CramberryCodec struct{}

var _ encoding.Codec = CramberryCodec{}

func (CramberryCodec) Marshal(v any) ([]byte, error) {
	b, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ledgergrpc: encode %T: %w", v, err)
	}
	return b, nil
}

func (CramberryCodec) Unmarshal(b []byte, v any) error {
	if err := cramberry.Unmarshal(b, v); err != nil {
		return fmt.Errorf("ledgergrpc: decode %T (%d bytes): %w", v, len(b), err)
	}
	return nil
}

func (CramberryCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
