package form

import (
	"maps"
	"slices"
	"time"

	"github.com/samber/lo"
)

// FilesUploadedLabel is the single bucket label used for file fields.
const FilesUploadedLabel = "Files Uploaded"

// Bucket is one tallied answer.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DayCount is the number of responses submitted on one calendar date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type tally struct {
	order  []string
	counts map[string]int
}

func (t *tally) add(label string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

func (t *tally) buckets() []Bucket {
	return lo.Map(t.order, func(label string, _ int) Bucket {
		return Bucket{Label: label, Count: t.counts[label]}
	})
}

// AggregateField tallies the answers to one field. Buckets come out in the
// order their label first appears in responses.
//
// Select and radio count exact matches; missing answers and empty strings
// are both left out. Checkbox counts each selected option on its own, so
// one response can add to several buckets. File fields yield a single
// "Files Uploaded" bucket. Every other type, or an unknown field, yields nil.
func AggregateField(f Form, fieldID string, responses []Response) []Bucket {
	fd, ok := f.Field(fieldID)
	if !ok {
		return nil
	}
	ts, ok := Lookup(fd.Type)
	if !ok {
		return nil
	}

	switch ts.Aggregate {
	case AggregateChoice:
		var t tally
		for _, r := range responses {
			if tv, ok := r.Values[fieldID].(TextValue); ok && tv != "" {
				t.add(string(tv))
			}
		}
		return t.buckets()

	case AggregateChoices:
		var t tally
		for _, r := range responses {
			switch v := r.Values[fieldID].(type) {
			case ChoiceSet:
				for _, opt := range v {
					t.add(opt)
				}
			case TextValue:
				if v != "" {
					t.add(string(v))
				}
			}
		}
		return t.buckets()

	case AggregateFile:
		n := lo.CountBy(responses, func(r Response) bool { return ts.Present(r.Values[fieldID]) })
		return []Bucket{{Label: FilesUploadedLabel, Count: n}}
	}
	return nil
}

// AggregateTimeSeries counts responses per UTC calendar date, oldest first.
func AggregateTimeSeries(responses []Response) []DayCount {
	return AggregateTimeSeriesIn(responses, time.UTC)
}

// AggregateTimeSeriesIn counts responses per calendar date in loc, oldest
// first. Responses without a submission time are skipped.
func AggregateTimeSeriesIn(responses []Response, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, r := range responses {
		if r.SubmittedAt.IsZero() {
			continue
		}
		counts[r.SubmittedAt.In(loc).Format(time.DateOnly)]++
	}
	// YYYY-MM-DD sorts lexically in date order
	days := slices.Sorted(maps.Keys(counts))
	return lo.Map(days, func(d string, _ int) DayCount {
		return DayCount{Date: d, Count: counts[d]}
	})
}

// FieldReport is the aggregate view of one field.
type FieldReport struct {
	FieldID  string    `json:"field_id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Answered int       `json:"answered"`
	Buckets  []Bucket  `json:"buckets"`
}

// Report is the analytics view of a whole form.
type Report struct {
	FormID         string        `json:"form_id"`
	TotalResponses int           `json:"total_responses"`
	Fields         []FieldReport `json:"fields"`
	TimeSeries     []DayCount    `json:"time_series"`
}

// BuildReport aggregates every field whose type supports tallying, plus
// the daily time series.
func BuildReport(f Form, responses []Response) Report {
	rep := Report{
		FormID:         f.ID,
		TotalResponses: len(responses),
		Fields:         []FieldReport{},
		TimeSeries:     AggregateTimeSeries(responses),
	}
	for _, fd := range f.Fields {
		ts, ok := Lookup(fd.Type)
		if !ok || ts.Aggregate == AggregateNone {
			continue
		}
		buckets := AggregateField(f, fd.ID, responses)
		if buckets == nil {
			buckets = []Bucket{}
		}
		rep.Fields = append(rep.Fields, FieldReport{
			FieldID:  fd.ID,
			Label:    fd.Label,
			Type:     fd.Type,
			Answered: Answered(fd, responses),
			Buckets:  buckets,
		})
	}
	return rep
}

// Answered counts the responses that hold an answer for fd.
func Answered(fd Field, responses []Response) int {
	ts, ok := Lookup(fd.Type)
	if !ok {
		return 0
	}
	return lo.CountBy(responses, func(r Response) bool { return ts.Present(r.Values[fd.ID]) })
}
