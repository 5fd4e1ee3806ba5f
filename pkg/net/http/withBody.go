package http

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/gofiber/fiber/v2"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	en2 "gopkg.in/go-playground/validator.v9/translations/en"

	"gopkg.in/go-playground/validator.v9"
)

// DecodeHandlerFunc is a handler which works with withBody decorator.
// It receives a struct which was decoded by withBody decorator before.
// Ex: json -> withBody -> DecodeHandlerFunc.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

// PayloadContextValue is a wrapper type used to keep Context.Locals safe.
type PayloadContextValue string

// ConstructorFunc representing a constructor of any type.
type ConstructorFunc func() any

// decoderHandler decodes payload coming from requests.
type decoderHandler struct {
	handler      DecodeHandlerFunc
	constructor  ConstructorFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// FiberHandlerFunc decodes the incoming request's body to a Go struct, validates it,
// checks for any extraneous fields not defined in the struct, and finally calls the
// wrapped handler function.
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	var s any

	if d.constructor != nil {
		s = d.constructor()
	} else {
		s = newOfType(d.structSource)
	}

	bodyBytes := c.Body()

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		var vErr pkg.ValidationKnownFieldsError
		_ = errors.As(pkg.ValidateBadRequestFieldsError(pkg.FieldValidations{"body": "malformed JSON"}, "", nil), &vErr)

		return BadRequest(c, vErr.Code, vErr.Message, vErr.Fields)
	}

	marshaled, err := json.Marshal(s)
	if err != nil {
		return err
	}

	var originalMap, marshaledMap map[string]any

	if err := json.Unmarshal(bodyBytes, &originalMap); err != nil {
		var vErr pkg.ValidationKnownFieldsError
		_ = errors.As(pkg.ValidateBadRequestFieldsError(pkg.FieldValidations{"body": "expected a JSON object"}, "", nil), &vErr)

		return BadRequest(c, vErr.Code, vErr.Message, vErr.Fields)
	}

	if err := json.Unmarshal(marshaled, &marshaledMap); err != nil {
		return err
	}

	// Fields present in the original payload but not recognized by the Go struct.
	diffFields := make(pkg.UnknownFields)

	for key, value := range originalMap {
		if _, ok := marshaledMap[key]; !ok {
			diffFields[key] = value
		}
	}

	if len(diffFields) > 0 {
		err := pkg.ValidateBadRequestFieldsError(pkg.FieldValidations{}, "", diffFields)

		var uErr pkg.ValidationUnknownFieldsError
		_ = errors.As(err, &uErr)

		return BadRequest(c, uErr.Code, uErr.Message, uErr.Fields)
	}

	if err := ValidateStruct(s); err != nil {
		var vErr pkg.ValidationKnownFieldsError
		if errors.As(err, &vErr) {
			return BadRequest(c, vErr.Code, vErr.Message, vErr.Fields)
		}

		return WithError(c, err)
	}

	c.Locals(string(PayloadContextValue("payload")), s)

	return d.handler(s, c)
}

// WithDecode wraps a handler function, providing it with a struct instance created
// using the provided constructor function.
func WithDecode(constructor ConstructorFunc, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:     h,
		constructor: constructor,
	}

	return d.FiberHandlerFunc
}

// WithBody wraps a handler function, providing it with an instance of the specified struct.
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:      h,
		structSource: s,
	}

	return d.FiberHandlerFunc
}

// Payload casts the decoded payload to its concrete input type.
func Payload[T any](p any) T {
	v, _ := p.(T)
	return v
}

// ValidateStruct validates a struct against defined validation rules, using the validator package.
func ValidateStruct(s any) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	err := v.Struct(s)
	if err != nil {
		errPtr := malformedRequestErr(err.(validator.ValidationErrors), trans)

		return errPtr
	}

	return nil
}

//nolint:ireturn
func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := en2.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v, trans
}

func malformedRequestErr(err validator.ValidationErrors, trans ut.Translator) pkg.ValidationKnownFieldsError {
	invalidFieldsMap := fields(err, trans)

	var vErr pkg.ValidationKnownFieldsError
	_ = errors.As(pkg.ValidateBadRequestFieldsError(invalidFieldsMap, "", nil), &vErr)

	return vErr
}

func fields(errs validator.ValidationErrors, trans ut.Translator) pkg.FieldValidations {
	l := len(errs)
	if l > 0 {
		fields := make(pkg.FieldValidations, l)
		for _, e := range errs {
			fields[e.Field()] = e.Translate(trans)
		}

		return fields
	}

	return nil
}
