package main

import jsoniter "github.com/json-iterator/go"

// json mirrors every other package in this module: jsoniter's
// stdlib-compatible config everywhere encoding/json would otherwise go.
var json = jsoniter.ConfigCompatibleWithStandardLibrary
