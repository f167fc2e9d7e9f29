package directive

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate = validator.New()
	decoder  = newDecoder()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	d.ZeroEmpty(true)
	return d
}

// ParamArgs holds the key=value arguments of a //compose:param directive.
type ParamArgs struct {
	Name     string `schema:"name,required" validate:"required"`
	Required bool   `schema:"required"`
	Type     string `schema:"type,required" validate:"required"`
	Source   string `schema:"source,required" validate:"required"`
}

// DecodeParam decodes the arguments of a //compose:param directive.
//
// Arguments are key=value pairs; values may be Go-quoted. A bare key is
// shorthand for key=true, so "required" sets Required.
func DecodeParam(args []string) (*ParamArgs, error) {
	values, err := Values(args)
	if err != nil {
		return nil, err
	}

	var p ParamArgs
	if err := decoder.Decode(&p, values); err != nil {
		return nil, fmt.Errorf("decode param arguments: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid param arguments: %w", err)
	}
	return &p, nil
}

// Values converts key=value arguments to url.Values.
func Values(args []string) (url.Values, error) {
	values := make(url.Values, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			value = "true"
		}
		if key == "" {
			return nil, fmt.Errorf("argument %q: missing key", arg)
		}
		if values.Has(key) {
			return nil, fmt.Errorf("argument %q: duplicate key", key)
		}

		unquoted, err := Unquote(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		values.Set(key, unquoted)
	}
	return values, nil
}

// Unquote strips Go string quotes from s when present.
// Unquoted input is returned unchanged.
func Unquote(s string) (string, error) {
	if len(s) < 2 {
		return s, nil
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
		u, err := strconv.Unquote(s)
		if err != nil {
			return "", errors.New("malformed quoted string")
		}
		return u, nil
	}
	return s, nil
}
