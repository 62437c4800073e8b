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

package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/tochemey/quizakt/auth"
	gerrors "github.com/tochemey/quizakt/errors"
)

const (
	notBlankTag  = "notblank"
	roleTag      = "role"
	quizStateTag = "quizstate"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	// report json names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return auth.Role(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation(quizStateTag, func(fl validator.FieldLevel) bool {
		return QuizState(fl.Field().String()).Valid()
	})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, roleTag, quizStateTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case roleTag:
		return fe.Field() + " is not a known role"
	case quizStateTag:
		return fe.Field() + " is not a known quiz state"
	default:
		return fe.Error()
	}
}

// Validate checks entity against its schema. The failures are returned as
// a ValidationError keyed by json field name.
func Validate(entity any) error {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return invalidPayload(err)
	}

	fields := make(map[string]string, len(failures))
	for _, failure := range failures {
		fields[failure.Field()] = failure.Translate(translator)
	}
	return gerrors.NewValidationError(firstReason(failures), fields)
}

func firstReason(failures validator.ValidationErrors) string {
	reason := failures[0].Translate(translator)
	if len(failures) > 1 {
		reason += " and more"
	}
	return reason
}

func invalidPayload(err error) error {
	return gerrors.NewValidationError("invalid payload: "+err.Error(), nil)
}
