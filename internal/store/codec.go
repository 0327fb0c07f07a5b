package store

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode/decMode mirror Core Deterministic Encoding (RFC 8949 SS4.2):
// sorted map keys, smallest integer width, no indefinite-length items.
// The same record always marshals to the same bytes, which keeps the
// save file's on-disk representation stable across runs for equal
// state — useful for diffing and for the durability tests.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	// world.Task/User/Service embed uuid.UUID, which implements
	// encoding.TextMarshaler; without this option it would encode as
	// an anonymous 16-element byte array instead of a readable string.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := encOptions.EncMode()
	if err != nil {
		panic("store: cbor encoder init: " + err.Error())
	}
	encMode = mode

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("store: cbor decoder init: " + err.Error())
	}
}

func marshalRecord(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	return data, nil
}

func unmarshalRecord(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	return nil
}
