//go:build !debug

/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func Assert(cond bool, a ...interface{})             {}
func Assertf(cond bool, f string, a ...interface{})  {}
func AssertNoErr(err error)                          {}
func AssertMsg(cond bool, msg string)                {}
func Func(f func())                                  {}
