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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// 非本包定义的错误统一返回 unexpected 错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case serialError:
		return specificErr.code()

	default:
		var serr serialError
		if errors.As(err, &serr) {
			return serr.code()
		}
		return errUnexpected.code()
	}
}

func IsRetryableErr(err error) bool {
	var serr serialError
	if errors.As(err, &serr) {
		return serr.retriable
	}
	return false
}

func GetErrorType(err error) ErrorType {
	var serr serialError
	if errors.As(err, &serr) {
		return serr.errType
	}
	return SystemError
}

// Registry 相关错误封装。
func WrapErrUnregisteredType(typeName any, msg ...string) error {
	err := wrapFields(ErrUnregisteredType, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDuplicateRegistration(typeName string, existing, incoming any, msg ...string) error {
	err := wrapFields(ErrDuplicateRegistration,
		value("type", typeName),
		value("existing", fmt.Sprintf("%T", existing)),
		value("incoming", fmt.Sprintf("%T", incoming)),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrRegistryFrozen(typeName string, msg ...string) error {
	err := wrapFields(ErrRegistryFrozen, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Document 相关错误封装。
func WrapErrMalformedDocument(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrMalformedDocument, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrMalformedDocumentCause 保留底层解析器返回的错误文本。
func WrapErrMalformedDocumentCause(cause error, msg ...string) error {
	if cause == nil {
		return nil
	}
	return WrapErrMalformedDocument(cause.Error(), msg...)
}

// Node 相关错误封装。
func WrapErrMissingProperty(nodeName, property string, msg ...string) error {
	err := wrapFields(ErrMissingProperty, value("node", nodeName), value("property", property))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrMissingChild(nodeName, child string, msg ...string) error {
	err := wrapFields(ErrMissingChild, value("node", nodeName), value("child", child))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrMalformedValue(property, raw, expected string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrMalformedValue,
		fmt.Sprintf("expect %s", expected),
		value("property", property),
		value("value", raw),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Object 相关错误封装。
func WrapErrUnexpectedType(expected string, actual any, msg ...string) error {
	err := wrapFields(ErrUnexpectedType,
		value("expected", expected),
		value("actual", fmt.Sprintf("%T", actual)),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

// IO 相关错误封装。
func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("key", key))
}

func wrapFields(err serialError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err serialError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
