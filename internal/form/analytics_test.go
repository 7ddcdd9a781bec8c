package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func analyticsForm() Form {
	return Form{
		ID: "f1",
		Fields: []Field{
			{ID: "name", Type: TypeText, Label: "Name"},
			{ID: "color", Type: TypeSelect, Label: "Color", Options: []string{"Red", "Blue", "Green"}},
			{ID: "tags", Type: TypeCheckbox, Label: "Tags", Options: []string{"a", "b", "c"}},
			{ID: "cv", Type: TypeFile, Label: "CV"},
		},
	}
}

func at(day string) time.Time {
	t, _ := time.Parse(time.DateOnly, day)
	return t.Add(10 * time.Hour)
}

func analyticsResponses() []Response {
	return []Response{
		{Values: Values{"color": TextValue("Blue"), "tags": ChoiceSet{"a", "b"}, "cv": FileRef{FileID: "k1"}}, SubmittedAt: at("2024-03-02")},
		{Values: Values{"color": TextValue("Red"), "tags": ChoiceSet{"b"}}, SubmittedAt: at("2024-03-01")},
		{Values: Values{"color": TextValue("Blue"), "tags": ChoiceSet{}}, SubmittedAt: at("2024-03-02")},
		{Values: Values{"color": TextValue("")}, SubmittedAt: at("2024-03-05")},
		{Values: Values{}, SubmittedAt: at("2024-03-01")},
	}
}

func TestAggregateField(t *testing.T) {
	f := analyticsForm()
	rs := analyticsResponses()

	t.Run("single choice in first-seen order", func(t *testing.T) {
		got := AggregateField(f, "color", rs)
		assert.Equal(t, []Bucket{{"Blue", 2}, {"Red", 1}}, got)
	})

	t.Run("checkbox counts each option", func(t *testing.T) {
		got := AggregateField(f, "tags", rs)
		assert.Equal(t, []Bucket{{"a", 1}, {"b", 2}}, got)
	})

	t.Run("file yields one bucket", func(t *testing.T) {
		got := AggregateField(f, "cv", rs)
		assert.Equal(t, []Bucket{{FilesUploadedLabel, 1}}, got)
	})

	t.Run("text is not aggregated", func(t *testing.T) {
		assert.Nil(t, AggregateField(f, "name", rs))
	})

	t.Run("unknown field", func(t *testing.T) {
		assert.Nil(t, AggregateField(f, "missing", rs))
	})

	t.Run("no responses", func(t *testing.T) {
		assert.Empty(t, AggregateField(f, "color", nil))
		assert.Equal(t, []Bucket{{FilesUploadedLabel, 0}}, AggregateField(f, "cv", nil))
	})
}

func TestAggregateField_CountsNeverExceedResponses(t *testing.T) {
	f := analyticsForm()
	rs := analyticsResponses()
	for _, id := range []string{"color", "cv"} {
		total := 0
		for _, b := range AggregateField(f, id, rs) {
			total += b.Count
		}
		assert.LessOrEqual(t, total, len(rs), id)
	}
}

func TestAggregateTimeSeries(t *testing.T) {
	got := AggregateTimeSeries(analyticsResponses())
	assert.Equal(t, []DayCount{
		{"2024-03-01", 2},
		{"2024-03-02", 2},
		{"2024-03-05", 1},
	}, got)

	assert.Empty(t, AggregateTimeSeries(nil))
}

func TestAggregateTimeSeriesIn(t *testing.T) {
	late := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("plus2", 2*60*60)

	got := AggregateTimeSeriesIn([]Response{{SubmittedAt: late}, {}}, loc)
	assert.Equal(t, []DayCount{{"2024-03-02", 1}}, got)
}

func TestBuildReport(t *testing.T) {
	rep := BuildReport(analyticsForm(), analyticsResponses())

	assert.Equal(t, "f1", rep.FormID)
	assert.Equal(t, 5, rep.TotalResponses)
	assert.Len(t, rep.TimeSeries, 3)

	ids := make([]string, len(rep.Fields))
	for i, fr := range rep.Fields {
		ids[i] = fr.FieldID
	}
	assert.Equal(t, []string{"color", "tags", "cv"}, ids)
	assert.Equal(t, 3, rep.Fields[0].Answered)
	assert.Equal(t, 2, rep.Fields[1].Answered)
	assert.Equal(t, 1, rep.Fields[2].Answered)
}
