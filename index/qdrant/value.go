package qdrant

import (
	"fmt"

	nativeQdrant "github.com/qdrant/go-client/qdrant"
)

// payloadFromMetadata converts a document's attribute map into Qdrant's
// native payload shape, mirroring qdrant.TryValueMap from the vectorstore
// provider but over this domain's narrower value set (string, int64, bool).
func payloadFromMetadata(meta map[string]any) (map[string]*nativeQdrant.Value, error) {
	payload := make(map[string]*nativeQdrant.Value, len(meta))
	for key, v := range meta {
		value, err := nativeQdrant.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("qdrant: failed to convert payload field %q: %w", key, err)
		}
		payload[key] = value
	}
	return payload, nil
}

// metadataFromPayload is the inverse of payloadFromMetadata, used when
// decoding a stored or query-returned point.
func metadataFromPayload(payload map[string]*nativeQdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	meta := make(map[string]any, len(payload))
	for key, v := range payload {
		meta[key] = valueToAny(v)
	}
	return meta
}

func valueToAny(v *nativeQdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *nativeQdrant.Value_StringValue:
		return kind.StringValue
	case *nativeQdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *nativeQdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *nativeQdrant.Value_BoolValue:
		return kind.BoolValue
	case *nativeQdrant.Value_NullValue:
		return nil
	case *nativeQdrant.Value_StructValue:
		return structToMap(kind.StructValue)
	case *nativeQdrant.Value_ListValue:
		return listToSlice(kind.ListValue)
	default:
		return nil
	}
}

func structToMap(s *nativeQdrant.Struct) map[string]any {
	if s == nil || s.Fields == nil {
		return nil
	}
	out := make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		out[k] = valueToAny(v)
	}
	return out
}

func listToSlice(l *nativeQdrant.ListValue) []any {
	if l == nil {
		return nil
	}
	out := make([]any, len(l.Values))
	for i, v := range l.Values {
		out[i] = valueToAny(v)
	}
	return out
}
