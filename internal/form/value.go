package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Value is one collected answer. The concrete type follows the field's Shape.
type Value interface {
	isValue()
}

// TextValue answers text, email, number, date, textarea, select and radio fields.
type TextValue string

// ChoiceSet answers checkbox fields. It behaves as a set that keeps
// insertion order.
type ChoiceSet []string

// FileRef answers file fields. It is produced by the upload collaborator.
type FileRef struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

func (TextValue) isValue() {}
func (ChoiceSet) isValue() {}
func (FileRef) isValue()   {}

func (cs ChoiceSet) Contains(option string) bool {
	return slices.Contains(cs, option)
}

// Toggle adds option when absent and removes it when present.
func (cs ChoiceSet) Toggle(option string) ChoiceSet {
	if i := slices.Index(cs, option); i >= 0 {
		return slices.Delete(slices.Clone(cs), i, i+1)
	}
	return append(slices.Clone(cs), option)
}

func (cs ChoiceSet) MarshalJSON() ([]byte, error) {
	if cs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(cs))
}

// Values maps field id to answer.
type Values map[string]Value

// Clone returns a copy that shares no slices with v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if cs, ok := val.(ChoiceSet); ok {
			val = slices.Clone(cs)
		}
		out[k] = val
	}
	return out
}

// Keys returns the answered field ids in sorted order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}

func (v *Values) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for k, msg := range raw {
		val, err := DecodeValue(msg)
		if err != nil {
			return fmt.Errorf("value %q: %w", k, err)
		}
		if val != nil {
			out[k] = val
		}
	}
	*v = out
	return nil
}

// DecodeValue decodes one JSON answer by its shape: strings and numbers become
// TextValue, arrays become ChoiceSet and objects become FileRef. A JSON null
// decodes to a nil Value.
func DecodeValue(msg json.RawMessage) (Value, error) {
	b := bytes.TrimSpace(msg)
	if len(b) == 0 {
		return nil, nil
	}
	switch b[0] {
	case 'n':
		return nil, nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		return TextValue(s), nil
	case '[':
		var ss []string
		if err := json.Unmarshal(b, &ss); err != nil {
			return nil, fmt.Errorf("%w: options must be strings", ErrWrongFieldType)
		}
		return ChoiceSet(ss), nil
	case '{':
		var ref FileRef
		if err := json.Unmarshal(b, &ref); err != nil {
			return nil, err
		}
		return ref, nil
	case 't', 'f':
		return nil, fmt.Errorf("%w: booleans are not accepted", ErrWrongFieldType)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return nil, err
		}
		return TextValue(n.String()), nil
	}
}
