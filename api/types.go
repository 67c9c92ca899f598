package api

import (
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
)

// decodeBody parses a JSON object body into a generic map so that both the
// native and action surfaces can be served by the same field extractors —
// the action surface additionally pulls bucket/index coordinates out of
// the same map (api/coords.go), the native surface takes them from the URL.
func decodeBody(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, cmn.ErrValidation("request body is not a JSON object: %v", err)
	}
	return body, nil
}

func bodyString(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func bodyInt(body map[string]interface{}, key string, def int) int {
	switch v := body[key].(type) {
	case float64:
		return int(v)
	default:
		return def
	}
}

func bodyBool(body map[string]interface{}, key string, def bool) bool {
	if v, ok := body[key].(bool); ok {
		return v
	}
	return def
}

func bodyStringSlice(body map[string]interface{}, key string) []string {
	raw, ok := body[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// bodyVector extracts the `{ "float32": [..] }` vector data field (§6).
func bodyVector(body map[string]interface{}, key string) ([]float32, error) {
	wrapper, ok := body[key].(map[string]interface{})
	if !ok {
		return nil, cmn.ErrValidation("%q must be an object of the form {\"float32\": [...]}", key)
	}
	raw, ok := wrapper["float32"].([]interface{})
	if !ok {
		return nil, cmn.ErrValidation("%q.float32 must be a numeric array", key)
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, cmn.ErrValidation("%q.float32[%d] is not a number", key, i)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// bodyMetadata extracts an optional plain-object metadata field.
func bodyMetadata(body map[string]interface{}, key string) map[string]interface{} {
	if v, ok := body[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// bodyFilter extracts and decodes an optional filter expression tree.
func bodyFilter(body map[string]interface{}, key string) (*meta.Filter, error) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return nil, nil
	}
	enc, err := json.Marshal(raw)
	if err != nil {
		return nil, cmn.ErrValidation("%q is not valid JSON: %v", key, err)
	}
	var f meta.Filter
	if err := json.Unmarshal(enc, &f); err != nil {
		return nil, cmn.ErrValidation("%q does not match the filter schema: %v", key, err)
	}
	return &f, nil
}

// bodyVectorRows extracts the `vectors` array PutVectors carries, each
// entry shaped { key, data: {float32:[...]}, metadata }.
func bodyVectorRows(body map[string]interface{}, key string) ([]meta.VectorRow, error) {
	raw, ok := body[key].([]interface{})
	if !ok {
		return nil, cmn.ErrValidation("%q must be an array of vector rows", key)
	}
	out := make([]meta.VectorRow, len(raw))
	for i, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, cmn.ErrValidation("%s[%d] must be an object", key, i)
		}
		vec, err := bodyVector(entry, "data")
		if err != nil {
			return nil, cmn.ErrValidation("%s[%d]: %v", key, i, err)
		}
		out[i] = meta.VectorRow{
			Key:      bodyString(entry, "key"),
			Vector:   vec,
			Metadata: bodyMetadata(entry, "metadata"),
		}
	}
	return out, nil
}

// wireResult renders a meta.Result with the `{ "float32": [..] }` vector
// shape instead of a bare array, mirroring the request side.
type wireResult struct {
	Key      string                 `json:"key"`
	Distance *float32               `json:"distance,omitempty"`
	Data     *wireVector            `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type wireVector struct {
	Float32 []float32 `json:"float32"`
}

// wireVectorRow is the response-side counterpart of the request body
// bodyVectorRows decodes: get/list vectors render the same
// { "float32": [..] } data shape back to the client.
type wireVectorRow struct {
	Key      string                 `json:"key"`
	Data     *wireVector            `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func toWireResults(results []meta.Result, returnDistance, returnData bool) []wireResult {
	out := make([]wireResult, len(results))
	for i, r := range results {
		wr := wireResult{Key: r.Key, Metadata: r.Metadata}
		if returnDistance {
			d := r.Distance
			wr.Distance = &d
		}
		if returnData && r.Vector != nil {
			wr.Data = &wireVector{Float32: r.Vector}
		}
		out[i] = wr
	}
	return out
}
