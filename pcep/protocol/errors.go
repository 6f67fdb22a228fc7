/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"errors"
	"fmt"
)

// DecodeError is a codec failure annotated with the RFC (Error-Type, Error-value)
// pair a PCC should answer with.
type DecodeError struct {
	ErrorType  ErrorType
	ErrorValue ErrorValue
	Msg        string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (%d,%d): %s", e.ErrorType, uint8(e.ErrorType), uint8(e.ErrorValue), e.Msg)
}

// Is makes errors.Is match two DecodeErrors on their (type, value) pair
func (e *DecodeError) Is(target error) bool {
	var other *DecodeError
	if !errors.As(target, &other) {
		return false
	}
	return e.ErrorType == other.ErrorType && e.ErrorValue == other.ErrorValue
}

func decodeErrorf(t ErrorType, v ErrorValue, format string, args ...interface{}) error {
	return &DecodeError{ErrorType: t, ErrorValue: v, Msg: fmt.Sprintf(format, args...)}
}

// ErrUnknownObjectClass reports an object class we don't recognize at all
var ErrUnknownObjectClass = &DecodeError{
	ErrorType:  ErrorTypeUnknownObject,
	ErrorValue: ErrorValueObjectClass,
	Msg:        "unknown object class",
}

// ErrUnknownObjectType reports an unrecognized type within a known class
var ErrUnknownObjectType = &DecodeError{
	ErrorType:  ErrorTypeUnknownObject,
	ErrorValue: ErrorValueObjectType,
	Msg:        "unknown object type",
}

func errTruncated(what string, want, have int) error {
	return decodeErrorf(ErrorTypeInvalidObjectReception, ErrorValueUnassigned,
		"truncated %s: need %d bytes, have %d", what, want, have)
}
