// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Registry related
	ErrUnregisteredType      = newSerialError("type not registered", 100, false)
	ErrDuplicateRegistration = newSerialError("conflicting proxy registration", 101, false)
	ErrRegistryFrozen        = newSerialError("registry frozen", 102, false)

	// Document related
	ErrMalformedDocument = newSerialError("malformed document", 200, false, WithErrorType(InputError))

	// Node related
	ErrMissingProperty = newSerialError("missing property", 300, false, WithErrorType(InputError))
	ErrMissingChild    = newSerialError("missing child node", 301, false, WithErrorType(InputError))
	ErrMalformedValue  = newSerialError("malformed property value", 302, false, WithErrorType(InputError))

	// Object related
	ErrUnexpectedType = newSerialError("unexpected object type", 400, false)

	// Parameter related
	ErrParameterInvalid = newSerialError("invalid parameter", 1100, false, WithErrorType(InputError))

	// IO related
	ErrIoFailed = newSerialError("IO failed", 1001, true)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to serialError
	errUnexpected = newSerialError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*serialError)

func WithDetail(detail string) errorOption {
	return func(err *serialError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serialError) {
		err.errType = etype
	}
}

type serialError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newSerialError(msg string, code int32, retriable bool, options ...errorOption) serialError {
	err := serialError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e serialError) code() int32 {
	return e.errCode
}

func (e serialError) Error() string {
	return e.msg
}

func (e serialError) Detail() string {
	return e.detail
}

func (e serialError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(serialError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// the cause of multi errors is defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

// Combine 合并多个错误，nil 会被忽略；全部为 nil 时返回 nil。
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
