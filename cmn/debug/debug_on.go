//go:build debug

// Package debug provides lightweight invariant assertions that compile
// out entirely in release builds.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
)

func _panic(a ...interface{}) {
	msg := "DEBUG PANIC: "
	if len(a) > 0 {
		msg += fmt.Sprint(a...)
	}
	buffer := bytes.NewBuffer(make([]byte, 0, 1024))
	fmt.Fprint(buffer, msg)
	for i := 2; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok || !strings.Contains(file, "vecdb") {
			break
		}
		f := filepath.Base(file)
		if buffer.Len() > len(msg) {
			buffer.WriteString(" <- ")
		}
		fmt.Fprintf(buffer, "%s:%d", f, line)
	}
	glog.Errorf("%s", buffer.Bytes())
	glog.Flush()
	panic(msg)
}

// Assert panics with a short call-stack trailer when cond is false.
// Compiled out unless the build carries the `debug` tag.
func Assert(cond bool, a ...interface{}) {
	if !cond {
		_panic(a...)
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		_panic(fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		_panic(err)
	}
}

func AssertMsg(cond bool, msg string) {
	if !cond {
		_panic(msg)
	}
}

func Func(f func()) { f() }
