package common

import (
	"encoding"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// WeakDecodeMap decodes a free-form configuration map into a typed options
// struct, routing string values through encoding.TextUnmarshaler where the
// target type implements it.
func WeakDecodeMap(input, output any) error {
	config := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   output,
		DecodeHook: func(
			f reflect.Type,
			t reflect.Type,
			data interface{}) (interface{}, error) {
			if !reflect.PointerTo(t).Implements(textUnmarshalerType) {
				return data, nil
			}

			str, ok := data.(string)
			if !ok {
				return data, nil
			}

			v := reflect.New(t).Interface().(encoding.TextUnmarshaler)
			if err := v.UnmarshalText([]byte(str)); err != nil {
				return nil, err
			}

			return v, nil
		},
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
