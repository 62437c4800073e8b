/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package errors

import "errors"

// NoServerConnection is the message shown to end users for infrastructure failures
// they cannot act on.
const NoServerConnection = "no server connection, please reconnect or log in again"

// UserMessage maps an error to text suitable for an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var notFound *NotFoundError
	switch {
	case errors.As(err, &notFound):
		return singular(notFound.Collection) + " not found"
	case errors.Is(err, ErrNotAllowed):
		return ErrNotAllowed.Error()
	case errors.Is(err, ErrValidation):
		var validation *ValidationError
		if errors.As(err, &validation) && validation.Reason != "" {
			return validation.Reason
		}
		return ErrValidation.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	default:
		return NoServerConnection
	}
}

func singular(collection string) string {
	switch collection {
	case "":
		return "entity"
	case "statistics":
		return "statistic"
	case "quizruns":
		return "run"
	}
	if collection[len(collection)-1] == 's' {
		return collection[:len(collection)-1]
	}
	return collection
}
