/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MorphMarshal round-trips v into out via JSON, the same "morph" idiom the
// teacher uses to turn a loosely-typed interface{} (decoded config blob,
// action-message payload) into a concrete struct without a bespoke
// reflection-based copier.
func MorphMarshal(v, out interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func MustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func MarshalToString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
