package form

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

// The fallback texts below are built only from aggregator output. They stand
// in for the AI analyst when it cannot be reached.

const topFieldCount = 3

type engagement struct {
	field    Field
	answered int
}

type stats struct {
	total        int
	fieldCount   int
	avgCompleted float64
	composition  []string
	engaged      []engagement
	topAnswers   []string
}

func collectStats(f Form, responses []Response) stats {
	st := stats{total: len(responses), fieldCount: len(f.Fields)}

	byType := lo.CountValuesBy(f.Fields, func(fd Field) FieldType { return fd.Type })
	for _, t := range FieldTypes() {
		if n := byType[t]; n > 0 {
			st.composition = append(st.composition, fmt.Sprintf("%d %s", n, t))
		}
	}

	if st.total == 0 {
		return st
	}

	answers := 0
	for _, fd := range f.Fields {
		n := Answered(fd, responses)
		answers += n
		st.engaged = append(st.engaged, engagement{field: fd, answered: n})
	}
	st.avgCompleted = float64(answers) / float64(st.total)

	slices.SortStableFunc(st.engaged, func(a, b engagement) int {
		return cmp.Compare(b.answered, a.answered)
	})
	if len(st.engaged) > topFieldCount {
		st.engaged = st.engaged[:topFieldCount]
	}

	for _, e := range st.engaged {
		buckets := AggregateField(f, e.field.ID, responses)
		if len(buckets) == 0 || e.field.Type == TypeFile {
			continue
		}
		top := slices.MaxFunc(buckets, func(a, b Bucket) int { return cmp.Compare(a.Count, b.Count) })
		if top.Count == 0 {
			continue
		}
		st.topAnswers = append(st.topAnswers, fmt.Sprintf("%s: %q (%s of %s)",
			e.field.Label, top.Label, humanize.Comma(int64(top.Count)), humanize.Comma(int64(e.answered))))
	}
	return st
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return part * 100 / whole
}

func (st stats) write(b *strings.Builder) {
	if len(st.composition) > 0 {
		fmt.Fprintf(b, "Form composition: %s.\n", strings.Join(st.composition, ", "))
	}
	if st.total == 0 {
		b.WriteString("No responses have been collected yet.\n")
		return
	}

	fmt.Fprintf(b, "Average fields completed per response: %.1f of %d.\n", st.avgCompleted, st.fieldCount)

	if len(st.engaged) > 0 {
		b.WriteString("\nMost engaged fields:\n")
		for _, e := range st.engaged {
			fmt.Fprintf(b, "- %s: %s answers (%d%%)\n",
				e.field.Label, humanize.Comma(int64(e.answered)), percent(e.answered, st.total))
		}
	}
	if len(st.topAnswers) > 0 {
		b.WriteString("\nMost common answers:\n")
		for _, a := range st.topAnswers {
			b.WriteString("- " + a + "\n")
		}
	}
}

func (st stats) recommendations() []string {
	var out []string
	if st.total < 10 {
		out = append(out, "Collect more responses before drawing firm conclusions.")
	}
	if st.fieldCount > 0 && st.total > 0 {
		rate := st.avgCompleted / float64(st.fieldCount)
		if rate < 0.7 {
			out = append(out, "Many fields are left blank. Consider shortening the form or marking key fields as required.")
		} else {
			out = append(out, "Completion is healthy. Follow up on the most common answers above.")
		}
	}
	if st.fieldCount > 10 {
		out = append(out, "Long forms lose respondents. Consider splitting this one.")
	}
	return out
}

// FallbackSummary describes a form and its responses without the AI analyst.
func FallbackSummary(f Form, responses []Response) string {
	st := collectStats(f, responses)

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %q\n\n", f.Title)
	fmt.Fprintf(&b, "Total responses: %s.\n", humanize.Comma(int64(st.total)))
	st.write(&b)
	return b.String()
}

// FallbackAnalysis answers an analysis request without the AI analyst. When
// question is not empty it is echoed so the reader knows what was asked.
func FallbackAnalysis(f Form, responses []Response, question string) string {
	st := collectStats(f, responses)

	var b strings.Builder
	question = strings.TrimSpace(question)
	if question != "" {
		fmt.Fprintf(&b, "Question: %s\n\n", question)
		b.WriteString("The AI analyst is unavailable, so this answer is based on response statistics only.\n\n")
	}
	fmt.Fprintf(&b, "Analysis of %q\n\n", f.Title)
	fmt.Fprintf(&b, "Total responses: %s.\n", humanize.Comma(int64(st.total)))
	st.write(&b)

	if recs := st.recommendations(); len(recs) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range recs {
			b.WriteString("- " + r + "\n")
		}
	}
	return b.String()
}
