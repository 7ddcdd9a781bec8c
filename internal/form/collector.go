package form

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/sourcegraph/conc"
)

// State is the lifecycle of a Collector.
type State int

const (
	StateEditing State = iota
	StateSubmitted
)

// UploadStatus tracks a file field's upload.
type UploadStatus int

const (
	UploadIdle UploadStatus = iota
	UploadPending
	UploadDone
	UploadFailed
)

func (s UploadStatus) String() string {
	switch s {
	case UploadPending:
		return "uploading"
	case UploadDone:
		return "uploaded"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// UploadInput is a file handed to an Uploader.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores a file and returns its reference. Errors should carry a
// message fit to show the person filling the form.
type Uploader interface {
	Upload(ctx context.Context, formID string, in UploadInput) (FileRef, error)
}

// Sink persists a finished submission.
type Sink interface {
	SubmitResponse(ctx context.Context, formID string, values Values) (Response, error)
}

// Control is one rendered input: the field, its current answer and whether
// it accepts edits.
type Control struct {
	Field       Field
	Value       Value
	Disabled    bool
	Upload      UploadStatus
	UploadError string
}

type upload struct {
	gen    int
	status UploadStatus
	err    string
}

// Collector gathers one respondent's answers for a form. File uploads run in
// the background; Submit waits for all of them before validating.
type Collector struct {
	form     Form
	readOnly bool

	mu         sync.Mutex
	state      State
	submitting bool
	values     Values
	uploads    map[string]*upload
	wg         conc.WaitGroup
}

// NewCollector starts an editable collection session for f.
func NewCollector(f Form) *Collector {
	return &Collector{
		form:    f.Clone(),
		values:  make(Values),
		uploads: make(map[string]*upload),
	}
}

// NewPreview returns a read-only session: controls are disabled and every
// mutation or submit fails with ErrReadOnly.
func NewPreview(f Form) *Collector {
	c := NewCollector(f)
	c.readOnly = true
	return c
}

func (c *Collector) Form() Form { return c.form.Clone() }

func (c *Collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Values returns a copy of the current answers.
func (c *Collector) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

// Controls lists one control per field in form order.
func (c *Collector) Controls() []Control {
	c.mu.Lock()
	defer c.mu.Unlock()

	disabled := c.readOnly || c.state == StateSubmitted
	out := make([]Control, 0, len(c.form.Fields))
	for _, fd := range c.form.Fields {
		ctl := Control{Field: fd.Clone(), Value: c.values[fd.ID], Disabled: disabled}
		if u, ok := c.uploads[fd.ID]; ok {
			ctl.Upload = u.status
			ctl.UploadError = u.err
		}
		out = append(out, ctl)
	}
	return out
}

// UploadStatus reports the upload state of a file field.
func (c *Collector) UploadStatus(fieldID string) UploadStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u, ok := c.uploads[fieldID]; ok {
		return u.status
	}
	return UploadIdle
}

// Pending reports whether any upload is still running.
func (c *Collector) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.uploads {
		if u.status == UploadPending {
			return true
		}
	}
	return false
}

// SetText sets a single-string answer. Last write wins. The value goes
// through the same format checks as Fill; a malformed one is refused and the
// previous answer stays.
func (c *Collector) SetText(fieldID, value string) error {
	return c.edit(fieldID, []Shape{ShapeText}, func(fd Field) error {
		ts, _ := Lookup(fd.Type)
		accepted, err := ts.Accept(fd, TextValue(value))
		if err != nil {
			return err
		}
		c.values[fd.ID] = accepted
		return nil
	})
}

// Select picks one option of a select or radio field, replacing any
// earlier choice.
func (c *Collector) Select(fieldID, option string) error {
	return c.edit(fieldID, []Shape{ShapeChoice}, func(fd Field) error {
		if !slices.Contains(fd.Options, option) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, option)
		}
		c.values[fd.ID] = TextValue(option)
		return nil
	})
}

// Toggle adds or removes one option of a checkbox field without touching
// the others.
func (c *Collector) Toggle(fieldID, option string) error {
	return c.edit(fieldID, []Shape{ShapeChoices}, func(fd Field) error {
		if !slices.Contains(fd.Options, option) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, option)
		}
		cur, _ := c.values[fd.ID].(ChoiceSet)
		next := cur.Toggle(option)
		if len(next) == 0 {
			delete(c.values, fd.ID)
			return nil
		}
		c.values[fd.ID] = next
		return nil
	})
}

// Clear removes the answer for any field.
func (c *Collector) Clear(fieldID string) error {
	return c.edit(fieldID, nil, func(fd Field) error {
		delete(c.values, fd.ID)
		if u, ok := c.uploads[fd.ID]; ok {
			u.gen++
			u.status = UploadIdle
			u.err = ""
		}
		return nil
	})
}

// ClearFile drops a file answer. An upload still in flight for the field
// keeps running but its result is discarded.
func (c *Collector) ClearFile(fieldID string) error {
	return c.edit(fieldID, []Shape{ShapeFile}, func(fd Field) error {
		delete(c.values, fd.ID)
		u := c.uploadFor(fd.ID)
		u.gen++
		u.status = UploadIdle
		u.err = ""
		return nil
	})
}

// Upload starts uploading in for a file field and returns immediately. The
// field reports UploadPending until the uploader finishes. On failure the
// answer stays unset and the error message is kept on the control.
func (c *Collector) Upload(ctx context.Context, fieldID string, in UploadInput, up Uploader) error {
	var gen int
	err := c.edit(fieldID, []Shape{ShapeFile}, func(fd Field) error {
		delete(c.values, fd.ID)
		u := c.uploadFor(fd.ID)
		u.gen++
		u.status = UploadPending
		u.err = ""
		gen = u.gen
		return nil
	})
	if err != nil {
		return err
	}

	formID := c.form.ID
	c.wg.Go(func() {
		ref, err := up.Upload(ctx, formID, in)

		c.mu.Lock()
		defer c.mu.Unlock()
		u := c.uploads[fieldID]
		if u == nil || u.gen != gen {
			return
		}
		if err != nil {
			u.status = UploadFailed
			u.err = err.Error()
			return
		}
		u.status = UploadDone
		c.values[fieldID] = ref
	})
	return nil
}

// Wait blocks until every running upload has finished or ctx is done.
// When ctx ends first, the helper goroutine stays parked on the wait group
// until the uploads return; each upload runs with its own ctx, so that is
// bounded by the uploader.
func (c *Collector) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fill decodes raw JSON answers keyed by field id and accepts each through
// the field type registry. Ids that are not in the form are ignored. Answers
// that fail the type's checks are reported together in a *ValidationError;
// the accepted ones are kept. File answers must name an upload of this form,
// and their URL is rebuilt from the key.
func (c *Collector) Fill(raw map[string]json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}

	verr := &ValidationError{}
	for _, fd := range c.form.Fields {
		msg, ok := raw[fd.ID]
		if !ok {
			continue
		}
		v, err := DecodeValue(msg)
		if err != nil {
			verr.add(fd.ID, err.Error())
			continue
		}
		if v == nil {
			delete(c.values, fd.ID)
			continue
		}
		ts, _ := Lookup(fd.Type)
		accepted, err := ts.Accept(fd, v)
		if ref, ok := accepted.(FileRef); ok && err == nil {
			accepted, err = bindFileRef(c.form.ID, ref)
		}
		if err != nil {
			verr.add(fd.ID, err.Error())
			continue
		}
		c.values[fd.ID] = accepted
	}
	return verr.orNil()
}

// Validate reports every required field that has no answer.
func (c *Collector) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Collector) validateLocked() error {
	verr := &ValidationError{}
	for _, fd := range c.form.Fields {
		if !fd.Required {
			continue
		}
		ts, _ := Lookup(fd.Type)
		if !ts.Present(c.values[fd.ID]) {
			reason := "required"
			if u, ok := c.uploads[fd.ID]; ok && u.status == UploadFailed {
				reason = "required: upload failed: " + u.err
			}
			verr.add(fd.ID, reason)
		}
	}
	return verr.orNil()
}

// Submit waits for pending uploads, validates required fields and hands the
// answers to sink. On success the collector is closed for edits. On any
// failure the answers are kept and the collector stays editable.
func (c *Collector) Submit(ctx context.Context, sink Sink) (Response, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return Response{}, err
	}
	c.submitting = true
	c.mu.Unlock()

	resp, err := c.submit(ctx, sink)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return Response{}, err
	}
	c.state = StateSubmitted
	return resp, nil
}

func (c *Collector) submit(ctx context.Context, sink Sink) (Response, error) {
	if err := c.Wait(ctx); err != nil {
		return Response{}, err
	}

	c.mu.Lock()
	err := c.validateLocked()
	values := c.values.Clone()
	c.mu.Unlock()
	if err != nil {
		return Response{}, err
	}

	return sink.SubmitResponse(ctx, c.form.ID, values)
}

func (c *Collector) edit(fieldID string, shapes []Shape, fn func(Field) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	fd, ok := c.form.Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, fieldID)
	}
	if shapes != nil {
		ts, _ := Lookup(fd.Type)
		if !slices.Contains(shapes, ts.Shape) {
			return fmt.Errorf("%w: field %q is %s", ErrWrongFieldType, fieldID, fd.Type)
		}
	}
	return fn(fd)
}

func (c *Collector) editableLocked() error {
	switch {
	case c.readOnly:
		return ErrReadOnly
	case c.state == StateSubmitted:
		return ErrSubmitted
	case c.submitting:
		return ErrSubmitting
	}
	return nil
}

func (c *Collector) uploadFor(fieldID string) *upload {
	u, ok := c.uploads[fieldID]
	if !ok {
		u = &upload{}
		c.uploads[fieldID] = u
	}
	return u
}
