// Package codec holds the snapshot encodings a store can be configured
// with. Both encodings are deterministic: the same room always encodes
// to the same bytes, so save(load(save(r))) == save(r).
package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"

	"github.com/dkeye/watchroom/internal/domain"
)

type Codec interface {
	Name() string
	Encode(room *domain.Room) ([]byte, error)
	Decode(data []byte) (*domain.Room, error)
}

// ByName resolves the store.codec config value.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "cbor":
		return CBOR{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// JSON is the human-readable snapshot form, indented, map keys sorted.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Encode(room *domain.Room) ([]byte, error) {
	data, err := json.MarshalIndent(room, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (JSON) Decode(data []byte) (*domain.Room, error) {
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding sorts map keys, so equal rooms are equal bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR is the compact snapshot form. Field names come from the json tags.
type CBOR struct{}

func (CBOR) Name() string { return "cbor" }

func (CBOR) Encode(room *domain.Room) ([]byte, error) {
	return encMode.Marshal(room)
}

func (CBOR) Decode(data []byte) (*domain.Room, error) {
	var room domain.Room
	if err := decMode.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
