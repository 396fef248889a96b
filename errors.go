// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package markify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented marks a conversion mode that is deliberately deferred
// (e.g. the cloud PDF strategy). Dispatch treats it like any other conversion
// failure.
var ErrNotImplemented = errors.New("conversion mode not implemented")

// UnsupportedFormatError is returned when no registered converter accepted
// any candidate extension, including the no-extension fallback.
type UnsupportedFormatError struct {
	Path       string
	Candidates []string
}

func (e *UnsupportedFormatError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("could not convert %q to Markdown: format not recognized", e.Path)
	}
	return fmt.Sprintf("could not convert %q to Markdown: formats %s are not supported",
		e.Path, strings.Join(e.Candidates, ", "))
}

// FailedAttempt records a converter that accepted a candidate extension but
// failed to convert.
type FailedAttempt struct {
	Extension string
	Converter string
	Err       error
}

// FileConversionError is returned when at least one converter accepted the
// input but every accepting converter failed.
type FileConversionError struct {
	Path       string
	Candidates []string
	Attempts   []FailedAttempt
}

func (e *FileConversionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not convert %q to Markdown. File type was recognized as %s. %d attempt(s) failed:",
		e.Path, strings.Join(e.Candidates, ", "), len(e.Attempts))
	for _, a := range e.Attempts {
		ext := a.Extension
		if ext == "" {
			ext = "<none>"
		}
		fmt.Fprintf(&b, "\n  %s %s: %v", a.Converter, ext, a.Err)
	}
	return b.String()
}

func (e *FileConversionError) Unwrap() error {
	if len(e.Attempts) > 0 {
		return e.Attempts[len(e.Attempts)-1].Err
	}
	return nil
}

// IsUnsupportedFormat reports whether the error is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}
