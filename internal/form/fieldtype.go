package form

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// FieldType is the closed set of input kinds a form field can take.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeEmail    FieldType = "email"
	TypeNumber   FieldType = "number"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
	TypeDate     FieldType = "date"
	TypeFile     FieldType = "file"
)

// Shape is the value representation a field type collects.
type Shape int

const (
	ShapeText    Shape = iota // single string
	ShapeChoice               // single string drawn from options
	ShapeChoices              // set of strings drawn from options
	ShapeFile                 // file reference
)

// AggregateKind selects how analytics tally a field type.
type AggregateKind int

const (
	AggregateNone AggregateKind = iota
	AggregateChoice
	AggregateChoices
	AggregateFile
)

// TypeSpec is the registry entry for one field type.
type TypeSpec struct {
	Type        FieldType
	UsesOptions bool
	Shape       Shape
	Aggregate   AggregateKind

	placeholder string
	format      func(string) error
}

// Placeholder is the default placeholder for new fields of this type.
func (s TypeSpec) Placeholder() string { return s.placeholder }

// Present reports whether v counts as an answer for a required field.
func (s TypeSpec) Present(v Value) bool {
	switch s.Shape {
	case ShapeText, ShapeChoice:
		tv, ok := v.(TextValue)
		return ok && tv != ""
	case ShapeChoices:
		cs, ok := v.(ChoiceSet)
		return ok && len(cs) > 0
	case ShapeFile:
		ref, ok := v.(FileRef)
		return ok && ref.FileID != ""
	}
	return false
}

// Accept checks that v has the right shape for field and, when it carries an
// answer, that the answer is well formed. It returns the normalized value.
func (s TypeSpec) Accept(field Field, v Value) (Value, error) {
	switch s.Shape {
	case ShapeText:
		tv, ok := v.(TextValue)
		if !ok {
			return nil, fmt.Errorf("%w: expected a single value", ErrWrongFieldType)
		}
		if tv != "" && s.format != nil {
			if err := s.format(string(tv)); err != nil {
				return nil, err
			}
		}
		return tv, nil

	case ShapeChoice:
		tv, ok := v.(TextValue)
		if !ok {
			return nil, fmt.Errorf("%w: expected a single option", ErrWrongFieldType)
		}
		if tv != "" && !slices.Contains(field.Options, string(tv)) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, string(tv))
		}
		return tv, nil

	case ShapeChoices:
		var cs ChoiceSet
		switch val := v.(type) {
		case ChoiceSet:
			cs = val
		case TextValue:
			// a lone string is a one-element selection
			if val != "" {
				cs = ChoiceSet{string(val)}
			}
		default:
			return nil, fmt.Errorf("%w: expected a list of options", ErrWrongFieldType)
		}
		out := ChoiceSet(lo.Uniq([]string(cs)))
		for _, opt := range out {
			if !slices.Contains(field.Options, opt) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownOption, opt)
			}
		}
		return out, nil

	case ShapeFile:
		ref, ok := v.(FileRef)
		if !ok {
			return nil, fmt.Errorf("%w: expected a file reference", ErrWrongFieldType)
		}
		return ref, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, string(s.Type))
}

var validate = validator.New()

func checkEmail(s string) error {
	if err := validate.Var(s, "required,email"); err != nil {
		return fmt.Errorf("%w: not a valid email address", ErrBadFormat)
	}
	return nil
}

func checkNumber(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("%w: not a number", ErrBadFormat)
	}
	return nil
}

func checkDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadFormat)
	}
	return nil
}

// registry order is the order the builder palette presents types in.
var registry = []TypeSpec{
	{Type: TypeText, Shape: ShapeText, placeholder: "Enter text..."},
	{Type: TypeEmail, Shape: ShapeText, placeholder: "Enter email...", format: checkEmail},
	{Type: TypeNumber, Shape: ShapeText, placeholder: "Enter number...", format: checkNumber},
	{Type: TypeTextarea, Shape: ShapeText, placeholder: "Enter your response..."},
	{Type: TypeSelect, UsesOptions: true, Shape: ShapeChoice, Aggregate: AggregateChoice, placeholder: "Enter select..."},
	{Type: TypeRadio, UsesOptions: true, Shape: ShapeChoice, Aggregate: AggregateChoice, placeholder: "Enter radio..."},
	{Type: TypeCheckbox, UsesOptions: true, Shape: ShapeChoices, Aggregate: AggregateChoices, placeholder: "Enter checkbox..."},
	{Type: TypeDate, Shape: ShapeText, placeholder: "Enter date...", format: checkDate},
	{Type: TypeFile, Shape: ShapeFile, Aggregate: AggregateFile, placeholder: "Enter file..."},
}

var byType = lo.KeyBy(registry, func(s TypeSpec) FieldType { return s.Type })

// Lookup returns the registry entry for t.
func Lookup(t FieldType) (TypeSpec, bool) {
	s, ok := byType[t]
	return s, ok
}

// FieldTypes lists every known type in registry order.
func FieldTypes() []FieldType {
	return lo.Map(registry, func(s TypeSpec, _ int) FieldType { return s.Type })
}

// ParseFieldType converts s into a known FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := byType[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
	}
	return t, nil
}

// Valid reports whether t is registered.
func (t FieldType) Valid() bool {
	_, ok := byType[t]
	return ok
}

// UsesOptions reports whether fields of type t carry an options list.
func (t FieldType) UsesOptions() bool {
	return byType[t].UsesOptions
}

func (t *FieldType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
