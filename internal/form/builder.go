package form

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Builder operations take a Form and return a new one. They never modify
// their input, and a reference to a missing field or option is a no-op.

const fieldIDPrefix = "field_"

// IDGenerator hands out field ids for one editing session.
type IDGenerator func() string

// SequentialIDs returns a generator of field_N ids that continues after the
// highest numbered id already in f and skips any id f already uses.
func SequentialIDs(f Form) IDGenerator {
	taken := make(map[string]struct{}, len(f.Fields))
	next := 0
	for _, fd := range f.Fields {
		taken[fd.ID] = struct{}{}
		if n, ok := fieldSeq(fd.ID); ok && n > next {
			next = n
		}
	}
	return func() string {
		for {
			next++
			id := fieldIDPrefix + strconv.Itoa(next)
			if _, ok := taken[id]; !ok {
				taken[id] = struct{}{}
				return id
			}
		}
	}
}

func fieldSeq(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, fieldIDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil && n > 0
}

func defaultOptions() []string {
	return []string{"Option 1", "Option 2"}
}

// CreateField returns a new field of type t with default label, placeholder
// and, for choice types, two default options.
func CreateField(t FieldType, ids IDGenerator) (Field, error) {
	ts, ok := Lookup(t)
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, string(t))
	}
	fd := Field{
		ID:          ids(),
		Type:        t,
		Label:       fmt.Sprintf("New %s field", t),
		Placeholder: ts.Placeholder(),
	}
	if ts.UsesOptions {
		fd.Options = defaultOptions()
	}
	return fd, nil
}

// AddNewField creates a field of type t with the next sequential id and
// appends it to f.
func AddNewField(f Form, t FieldType) (Form, Field, error) {
	fd, err := CreateField(t, SequentialIDs(f))
	if err != nil {
		return f.Clone(), Field{}, err
	}
	return AddField(f, fd), fd, nil
}

// AddField appends fd. A field whose id is already in f is ignored so ids
// stay unique.
func AddField(f Form, fd Field) Form {
	out := f.Clone()
	if fd.ID == "" || out.IndexOf(fd.ID) >= 0 {
		return out
	}
	out.Fields = append(out.Fields, fd.Clone())
	return out
}

// FieldPatch holds the field attributes to change. Nil members are left alone.
type FieldPatch struct {
	Type        *FieldType `json:"type,omitempty"`
	Label       *string    `json:"label,omitempty"`
	Placeholder *string    `json:"placeholder,omitempty"`
	Required    *bool      `json:"required,omitempty"`
	Options     *[]string  `json:"options,omitempty"`
}

// UpdateField merges p into the field with id. Changing the type re-derives
// the options: choice types keep existing options or get the defaults, other
// types drop them. Options in p only apply when the resulting type uses them.
func UpdateField(f Form, id string, p FieldPatch) Form {
	return editField(f, id, func(fd *Field) {
		if p.Type != nil && *p.Type != fd.Type && p.Type.Valid() {
			fd.Type = *p.Type
			switch {
			case !fd.Type.UsesOptions():
				fd.Options = nil
			case len(fd.Options) == 0:
				fd.Options = defaultOptions()
			}
		}
		if p.Label != nil {
			fd.Label = *p.Label
		}
		if p.Placeholder != nil {
			fd.Placeholder = *p.Placeholder
		}
		if p.Required != nil {
			fd.Required = *p.Required
		}
		if p.Options != nil && fd.Type.UsesOptions() {
			fd.Options = slices.Clone(*p.Options)
		}
	})
}

// RemoveField drops the field with id.
func RemoveField(f Form, id string) Form {
	out := f.Clone()
	out.Fields = slices.DeleteFunc(out.Fields, func(fd Field) bool { return fd.ID == id })
	return out
}

// ReorderFields moves the field at from to position to. The other fields keep
// their relative order. Equal or out of range indices leave the order as is.
func ReorderFields(f Form, from, to int) Form {
	out := f.Clone()
	n := len(out.Fields)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return out
	}
	moved := out.Fields[from]
	out.Fields = slices.Delete(out.Fields, from, from+1)
	out.Fields = slices.Insert(out.Fields, to, moved)
	return out
}

// AddOption appends "Option {n+1}" to a choice field.
func AddOption(f Form, id string) Form {
	return editOptions(f, id, func(opts []string) []string {
		return append(opts, fmt.Sprintf("Option %d", len(opts)+1))
	})
}

// UpdateOption replaces the option at index.
func UpdateOption(f Form, id string, index int, value string) Form {
	return editOptions(f, id, func(opts []string) []string {
		if index < 0 || index >= len(opts) {
			return opts
		}
		opts[index] = value
		return opts
	})
}

// RemoveOption drops the option at index.
func RemoveOption(f Form, id string, index int) Form {
	return editOptions(f, id, func(opts []string) []string {
		if index < 0 || index >= len(opts) {
			return opts
		}
		return slices.Delete(opts, index, index+1)
	})
}

func SetTitle(f Form, title string) Form {
	out := f.Clone()
	out.Title = title
	return out
}

func SetDescription(f Form, description string) Form {
	out := f.Clone()
	out.Description = description
	return out
}

func SetActive(f Form, active bool) Form {
	out := f.Clone()
	out.IsActive = active
	return out
}

// FormPatch holds the form attributes to change. Nil members are left alone.
type FormPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Fields      *[]Field `json:"fields,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Empty reports whether p changes nothing.
func (p FormPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Fields == nil && p.IsActive == nil
}

// ApplyPatch returns f with p merged in.
func ApplyPatch(f Form, p FormPatch) Form {
	out := f.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Fields != nil {
		out.Fields = Form{Fields: *p.Fields}.Clone().Fields
	}
	if p.IsActive != nil {
		out.IsActive = *p.IsActive
	}
	return out
}

func editField(f Form, id string, fn func(*Field)) Form {
	out := f.Clone()
	if i := out.IndexOf(id); i >= 0 {
		fn(&out.Fields[i])
	}
	return out
}

func editOptions(f Form, id string, fn func([]string) []string) Form {
	return editField(f, id, func(fd *Field) {
		if !fd.Type.UsesOptions() {
			return
		}
		fd.Options = fn(fd.Options)
	})
}
