package mediasoup

import (
	"encoding/json"
	"math/rand/v2"
	"reflect"

	"github.com/imdario/mergo"
)

type ptrTransformers struct{}

// Transformer makes a non-nil pointer in src replace the one in dst instead of
// being merged field by field.
func (ptrTransformers) Transformer(tp reflect.Type) func(dst, src reflect.Value) error {
	if tp.Kind() != reflect.Ptr {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// override copies the non-zero fields of src over dst.
func override(dst, src any) error {
	return mergo.Merge(dst, src,
		mergo.WithOverride,
		mergo.WithTypeCheck,
		mergo.WithTransformers(ptrTransformers{}),
	)
}

// withDefaults fills the zero fields of dst from defaults.
func withDefaults(dst, defaults any) error {
	return mergo.Merge(dst, defaults)
}

// clone deep copies through JSON, which is how every value crossing the
// channel is represented anyway.
func clone[T any](from T) (to T) {
	data, err := json.Marshal(from)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &to); err != nil {
		panic(err)
	}
	return to
}

// generateSsrc returns a random SSRC in [100000000, 999999999].
func generateSsrc() uint32 {
	return uint32(rand.IntN(900000000)) + 100000000
}

func ref[T any](v T) *T {
	return &v
}

func Bool(b bool) *bool {
	return &b
}

func Uint8(v uint8) *uint8 {
	return &v
}
