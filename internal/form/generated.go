package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fencePattern  = regexp.MustCompile("(?m)^\\s*```(?:json)?\\s*$")
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseGenerated validates a model reply that should contain a form as JSON.
// Markdown fences and text around the outermost object are ignored. The
// reply must have a string title, a string description and a fields array
// whose entries satisfy the form invariants. The result is an inactive draft
// with no id.
func ParseGenerated(text string) (Form, error) {
	cleaned := fencePattern.ReplaceAllString(text, "")
	payload := objectPattern.FindString(cleaned)
	if payload == "" {
		return Form{}, fmt.Errorf("%w: no JSON object in reply", ErrInvalidGenerated)
	}
	if !gjson.Valid(payload) {
		return Form{}, fmt.Errorf("%w: malformed JSON", ErrInvalidGenerated)
	}

	doc := gjson.Parse(payload)
	title := doc.Get("title")
	if title.Type != gjson.String {
		return Form{}, fmt.Errorf("%w: missing title", ErrInvalidGenerated)
	}
	desc := doc.Get("description")
	if desc.Type != gjson.String {
		return Form{}, fmt.Errorf("%w: missing description", ErrInvalidGenerated)
	}
	fields := doc.Get("fields")
	if !fields.IsArray() {
		return Form{}, fmt.Errorf("%w: missing fields array", ErrInvalidGenerated)
	}

	out := Form{
		Title:       strings.TrimSpace(title.Str),
		Description: strings.TrimSpace(desc.Str),
		Fields:      make([]Field, 0, len(fields.Array())),
	}
	for i, raw := range fields.Array() {
		fd, err := generatedField(raw)
		if err != nil {
			return Form{}, fmt.Errorf("%w: field %d: %w", ErrInvalidGenerated, i, err)
		}
		out.Fields = append(out.Fields, fd)
	}

	if err := out.ValidateForPublish(); err != nil {
		return Form{}, fmt.Errorf("%w: %w", ErrInvalidGenerated, err)
	}
	return out, nil
}

func generatedField(raw gjson.Result) (Field, error) {
	if !raw.IsObject() {
		return Field{}, errors.New("not an object")
	}
	id := strings.TrimSpace(raw.Get("id").String())
	if id == "" {
		return Field{}, errors.New("missing id")
	}
	t, err := ParseFieldType(raw.Get("type").String())
	if err != nil {
		return Field{}, err
	}
	label := strings.TrimSpace(raw.Get("label").String())
	if label == "" {
		return Field{}, errors.New("missing label")
	}

	fd := Field{
		ID:          id,
		Type:        t,
		Label:       label,
		Placeholder: raw.Get("placeholder").String(),
		Required:    raw.Get("required").Bool(),
	}
	if !t.UsesOptions() {
		return fd, nil
	}
	for _, opt := range raw.Get("options").Array() {
		if s := strings.TrimSpace(opt.String()); s != "" {
			fd.Options = append(fd.Options, s)
		}
	}
	if len(fd.Options) == 0 {
		return Field{}, fmt.Errorf("%s field %q has no options", t, id)
	}
	return fd, nil
}
