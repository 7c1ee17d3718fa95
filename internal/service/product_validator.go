package service

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"product-api/internal/domain"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps a JSON pointer (e.g. "/name") to the messages
// collected for that field, in rule order.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	paths := make([]string, 0, len(e))
	for path := range e {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, path+": "+strings.Join(e[path], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationErrors) add(field, message string) {
	path := "/" + field
	e[path] = append(e[path], message)
}

// rule is a single predicate over an already type-checked string value
type rule struct {
	check   func(string) bool
	message string
}

type fieldDef struct {
	name       string
	required   bool
	trim       bool
	allowEmpty bool
	rules      []rule
}

// ProductValidator checks raw product payloads. It holds no per-call state
// and is safe for concurrent use.
type ProductValidator struct {
	validate *validator.Validate
	fields   []fieldDef
}

// NewProductValidator creates the validator with the product field rules
func NewProductValidator() *ProductValidator {
	v := &ProductValidator{validate: validator.New()}

	v.fields = []fieldDef{
		{name: "id", allowEmpty: true},
		{name: "name", required: true, trim: true},
		{name: "imageURL", required: true, trim: true, rules: []rule{
			{check: v.isURI, message: "must be a valid uri"},
		}},
		{name: "lastModified", rules: []rule{
			{check: isISODate, message: "must be in ISO 8601 date format"},
		}},
	}

	return v
}

// Validate checks record and returns the normalized product built from the
// known fields. Unknown fields are dropped. Every failing rule is reported;
// the returned error is nil or a ValidationErrors.
func (v *ProductValidator) Validate(record map[string]interface{}) (*domain.Product, error) {
	errs := ValidationErrors{}
	values := make(map[string]string, len(v.fields))

	for _, field := range v.fields {
		raw, present := record[field.name]
		if !present {
			if field.required {
				errs.add(field.name, fmt.Sprintf("%q is required", field.name))
			}
			continue
		}

		s, ok := raw.(string)
		if !ok {
			errs.add(field.name, fmt.Sprintf("%q must be a string", field.name))
			continue
		}

		if field.trim {
			s = strings.TrimSpace(s)
		}

		if s == "" && !field.allowEmpty {
			errs.add(field.name, fmt.Sprintf("%q is not allowed to be empty", field.name))
		}

		for _, r := range field.rules {
			if !r.check(s) {
				errs.add(field.name, fmt.Sprintf("%q %s", field.name, r.message))
			}
		}

		values[field.name] = s
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &domain.Product{
		ID:           values["id"],
		Name:         values["name"],
		ImageURL:     values["imageURL"],
		LastModified: values["lastModified"],
	}, nil
}

// isURI accepts absolute URIs only; a scheme is mandatory
func (v *ProductValidator) isURI(s string) bool {
	if err := v.validate.Var(s, "uri"); err != nil {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func isISODate(s string) bool {
	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
