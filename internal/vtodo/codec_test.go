package vtodo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example//Tasks//EN\r\n" +
	"BEGIN:VTODO\r\n" +
	"UID:item-1\r\n" +
	"CREATED:20240101T100000Z\r\n" +
	"LAST-MODIFIED:20240101T100000Z\r\n" +
	"DTSTAMP:20240101T100000Z\r\n" +
	"SUMMARY;LANGUAGE=fr:Lait\r\n" +
	"X-CUSTOM:foo\r\n" +
	"DESCRIPTION:Quantité: 2L\r\n" +
	"CATEGORIES:Produits laitiers\r\n" +
	"STATUS:NEEDS-ACTION\r\n" +
	"BEGIN:VALARM\r\n" +
	"ACTION:DISPLAY\r\n" +
	"DESCRIPTION:Reminder\r\n" +
	"TRIGGER:-PT15M\r\n" +
	"END:VALARM\r\n" +
	"END:VTODO\r\n" +
	"END:VCALENDAR\r\n"

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		summary     string
		description string
		categories  string
	}{
		{name: "all fields", summary: "Lait demi-écrémé", description: "Quantité: 2L", categories: "Produits laitiers"},
		{name: "summary only", summary: "Pain"},
		{name: "no category", summary: "Tomates", description: "Quantité: 1kg"},
		{name: "long summary", summary: strings.Repeat("Fromage de chèvre frais ", 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := Encode(tt.summary, tt.description, tt.categories)
			require.NoError(t, err)

			task, err := Decode(record)
			require.NoError(t, err)
			assert.Equal(t, tt.summary, task.Summary)
			assert.Equal(t, tt.description, task.Description)
			assert.Equal(t, tt.categories, task.Categories)
			assert.Equal(t, StatusNeedsAction, task.Status)
			assert.False(t, task.Completed())
			assert.NotEmpty(t, task.UID)
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	record, err := encodeAt(now, "uid-42", "Pain", "", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, record, "BEGIN:VTODO\r\n")
	assert.Contains(t, record, "UID:uid-42\r\n")
	assert.Contains(t, record, "CREATED:20240301T083000Z\r\n")
	assert.Contains(t, record, "LAST-MODIFIED:20240301T083000Z\r\n")
	assert.Contains(t, record, "DTSTAMP:20240301T083000Z\r\n")
	assert.Contains(t, record, "STATUS:NEEDS-ACTION\r\n")
	assert.NotContains(t, record, "DESCRIPTION")
	assert.NotContains(t, record, "CATEGORIES")

	order := []string{"UID:", "CREATED:", "LAST-MODIFIED:", "DTSTAMP:", "SUMMARY:", "STATUS:", "END:VTODO"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(record, marker)
		require.Greater(t, idx, last, "%s out of order", marker)
		last = idx
	}
}

func TestEncode_UniqueIDs(t *testing.T) {
	a, err := Encode("Pain", "", "")
	require.NoError(t, err)
	b, err := Encode("Pain", "", "")
	require.NoError(t, err)

	ta, _ := Decode(a)
	tb, _ := Decode(b)
	assert.NotEqual(t, ta.UID, tb.UID)
}

func TestEncode_EmptySummary(t *testing.T) {
	_, err := Encode("  ", "", "")
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestDecode(t *testing.T) {
	task, err := Decode(sampleRecord)
	require.NoError(t, err)

	assert.Equal(t, "item-1", task.UID)
	assert.Equal(t, "Lait", task.Summary)
	assert.Equal(t, "Quantité: 2L", task.Description, "alarm description must not leak into the task")
	assert.Equal(t, "Produits laitiers", task.Categories)
	assert.False(t, task.Completed())
	assert.Contains(t, task.Unknown, "X-CUSTOM:foo")
	assert.Contains(t, task.Unknown, "DESCRIPTION:Reminder")
}

func TestDecode_MissingStatus(t *testing.T) {
	record := "BEGIN:VCALENDAR\r\nBEGIN:VTODO\r\nUID:x\r\nSUMMARY:Beurre\r\nEND:VTODO\r\nEND:VCALENDAR\r\n"

	task, err := Decode(record)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsAction, task.Status)
	assert.False(t, task.Completed())
}

func TestDecode_Completed(t *testing.T) {
	record := "BEGIN:VTODO\nSUMMARY:Beurre\nSTATUS:completed\nEND:VTODO\n"

	task, err := Decode(record)
	require.NoError(t, err)
	assert.True(t, task.Completed())
}

func TestDecode_BarePropertyList(t *testing.T) {
	task, err := Decode("SUMMARY:Oeufs\r\nCATEGORIES:Produits laitiers\r\n")
	require.NoError(t, err)
	assert.Equal(t, "Oeufs", task.Summary)
	assert.Equal(t, "Produits laitiers", task.Categories)
}

func TestDecode_Malformed(t *testing.T) {
	for _, record := range []string{
		"",
		"hello world",
		"BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nSUMMARY:Meeting\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n",
	} {
		_, err := Decode(record)
		assert.ErrorIs(t, err, ErrMalformedRecord, "record %q", record)
	}
}

func TestDecode_FoldedAndEscaped(t *testing.T) {
	record := "BEGIN:VTODO\r\n" +
		"SUMMARY:Pâtes\\, riz\\; farine\r\n" +
		"DESCRIPTION:Quantité: 3 paquets\\nMarque: n'importe laq\r\n" +
		" uelle\r\n" +
		"END:VTODO\r\n"

	task, err := Decode(record)
	require.NoError(t, err)
	assert.Equal(t, "Pâtes, riz; farine", task.Summary)
	assert.Equal(t, "Quantité: 3 paquets\nMarque: n'importe laquelle", task.Description)
}

func TestReencode_PreservesUnknownLines(t *testing.T) {
	tests := []struct {
		name        string
		summary     string
		description string
		categories  string
		status      string
	}{
		{name: "rename", summary: "Lait entier", description: "Quantité: 2L", categories: "Produits laitiers", status: StatusNeedsAction},
		{name: "complete", summary: "Lait", description: "Quantité: 2L", categories: "Produits laitiers", status: StatusCompleted},
		{name: "clear fields", summary: "Lait", status: StatusNeedsAction},
		{name: "special characters", summary: "Lait, bio; frais", description: "ligne 1\nligne 2", categories: "Épicerie", status: StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Reencode(sampleRecord, tt.summary, tt.description, tt.categories, tt.status)
			require.NoError(t, err)

			before := linesExcept(sampleRecord)
			after := linesExcept(out)
			assert.Equal(t, before, after, "unknown lines must keep content and order")

			task, err := Decode(out)
			require.NoError(t, err)
			assert.Equal(t, tt.summary, task.Summary)
			assert.Equal(t, tt.description, task.Description)
			assert.Equal(t, tt.categories, task.Categories)
			assert.Equal(t, tt.status, task.Status)
		})
	}
}

// linesExcept returns the lines of a record that Reencode may rewrite
// removed, leaving the lines that must pass through untouched.
func linesExcept(record string) []string {
	var out []string
	inAlarm := false
	for _, line := range strings.Split(strings.TrimSuffix(record, "\r\n"), "\r\n") {
		switch line {
		case "BEGIN:VALARM":
			inAlarm = true
		case "END:VALARM":
			inAlarm = false
		}
		if !inAlarm {
			name, _, _, ok := parseContentLine(line)
			if ok && (name == "SUMMARY" || name == "DESCRIPTION" || name == "CATEGORIES" ||
				name == "STATUS" || name == "LAST-MODIFIED") {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func TestReencode_InPlaceSubstitution(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	out, err := reencodeAt(now, sampleRecord, "Lait entier", "Quantité: 1L", "", StatusCompleted)
	require.NoError(t, err)

	lines := strings.Split(out, "\r\n")
	assert.Equal(t, "LAST-MODIFIED:20240502T120000Z", lines[6])
	assert.Equal(t, "SUMMARY;LANGUAGE=fr:Lait entier", lines[8])
	assert.Equal(t, "X-CUSTOM:foo", lines[9])
	assert.Equal(t, "DESCRIPTION:Quantité: 1L", lines[10])
	assert.Equal(t, "STATUS:COMPLETED", lines[11])
	assert.NotContains(t, out, "CATEGORIES")
	assert.Contains(t, out, "DESCRIPTION:Reminder\r\n")
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
}

func TestReencode_InsertsMissingFields(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	original := "BEGIN:VCALENDAR\r\nBEGIN:VTODO\r\nUID:x\r\nX-APPLE-SORT-ORDER:3\r\nEND:VTODO\r\nEND:VCALENDAR\r\n"

	out, err := reencodeAt(now, original, "Pain", "", "Épicerie", StatusNeedsAction)
	require.NoError(t, err)

	assert.Equal(t, "BEGIN:VCALENDAR\r\n"+
		"BEGIN:VTODO\r\n"+
		"UID:x\r\n"+
		"X-APPLE-SORT-ORDER:3\r\n"+
		"LAST-MODIFIED:20240502T120000Z\r\n"+
		"SUMMARY:Pain\r\n"+
		"CATEGORIES:Épicerie\r\n"+
		"STATUS:NEEDS-ACTION\r\n"+
		"END:VTODO\r\n"+
		"END:VCALENDAR\r\n", out)
}

func TestReencode_FoldedUnknownLineKeptVerbatim(t *testing.T) {
	original := "BEGIN:VTODO\r\n" +
		"SUMMARY:Pain\r\n" +
		"X-NOTE:une note tres longue qui a ete pliee par un autre client de cal\r\n" +
		" endrier\r\n" +
		"END:VTODO\r\n"

	out, err := Reencode(original, "Pain complet", "", "", StatusNeedsAction)
	require.NoError(t, err)
	assert.Contains(t, out, "X-NOTE:une note tres longue qui a ete pliee par un autre client de cal\r\n endrier\r\n")
}

func TestReencode_Malformed(t *testing.T) {
	_, err := Reencode("SUMMARY:Pain\r\n", "Pain", "", "", StatusNeedsAction)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusFor(true))
	assert.Equal(t, StatusNeedsAction, StatusFor(false))
}
