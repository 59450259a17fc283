package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// maxModelName bounds a single entry of a models override.
const maxModelName = 256

// trans is a private global translator
var trans ut.Translator

// InitValidator configures gin's validator engine: json field names in
// messages, english translations and the modellist tag.
func InitValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("modellist", validateModelList)

	en := en.New()
	uni := ut.New(en, en)
	trans, _ = uni.GetTranslator("en")

	_ = en_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("modellist", trans,
		func(ut ut.Translator) error {
			return ut.Add("modellist", "{0} must be a comma separated list of model names", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("modellist", fe.Field())
			return t
		},
	)
}

// validateModelList accepts a comma separated list of model names. Entries
// are trimmed and may contain spaces; line breaks are rejected. Empty entries
// are allowed and ignored by discovery.
func validateModelList(fl validator.FieldLevel) bool {
	for _, tok := range strings.Split(fl.Field().String(), ",") {
		tok = strings.TrimSpace(tok)
		if len(tok) > maxModelName || strings.ContainsAny(tok, "\r\n") {
			return false
		}
	}
	return true
}

// ParseValidationError converts raw technical errors into a clean map.
// When defined, nested errors can be resolved into their heirarchical naming.
func ParseValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			ns := e.Namespace()

			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			msg := e.Field() + " is invalid"
			if trans != nil {
				msg = e.Translate(trans)
			}

			if e.Tag() == "oneof" {
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			}

			errMap[ns] = msg
		}
		return errMap
	}

	errMap["body"] = "Invalid request body format. Please fix your payload."
	return errMap
}
