package vtodo

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// Task status values.
const (
	StatusNeedsAction = "NEEDS-ACTION"
	StatusCompleted   = "COMPLETED"
)

const (
	propSummary      = "SUMMARY"
	propDescription  = "DESCRIPTION"
	propCategories   = "CATEGORIES"
	propStatus       = "STATUS"
	propLastModified = "LAST-MODIFIED"
	propUID          = "UID"

	componentTodo = "VTODO"

	// TimestampLayout is the UTC DATE-TIME form used for CREATED,
	// LAST-MODIFIED and DTSTAMP.
	TimestampLayout = "20060102T150405Z"

	productName = "courses"
)

var (
	// ErrMalformedRecord is returned when a record carries no task content.
	ErrMalformedRecord = errors.New("malformed task record")

	// ErrEmptySummary is returned when encoding a task without a summary.
	ErrEmptySummary = errors.New("task summary is required")
)

// Task is the decoded content of a VTODO record.
type Task struct {
	UID         string
	Summary     string
	Description string
	Categories  string
	Status      string

	// Unknown holds every line the codec does not interpret, in record
	// order, exactly as it was read (folded lines keep their folding).
	Unknown []string
}

// Completed reports whether the task status is COMPLETED.
func (t Task) Completed() bool {
	return strings.EqualFold(t.Status, StatusCompleted)
}

// StatusFor maps a completion flag to a status value.
func StatusFor(completed bool) string {
	if completed {
		return StatusCompleted
	}
	return StatusNeedsAction
}

// Decode reads the task fields of a record. Properties are recognized when
// they belong directly to a VTODO component, or when the record is a bare
// property list with no component wrapper at all. Nested components such as
// VALARM are passed through as unknown lines. A record without STATUS decodes
// as NEEDS-ACTION.
func Decode(record string) (Task, error) {
	var (
		task     Task
		stack    []string
		sawTodo  bool
		sawField bool
	)
	for _, line := range unfold(splitLines(record)) {
		name, _, value, ok := parseContentLine(line.text)
		if !ok {
			task.Unknown = append(task.Unknown, line.raw...)
			continue
		}

		switch name {
		case "BEGIN":
			component := strings.ToUpper(strings.TrimSpace(value))
			stack = append(stack, component)
			if component == componentTodo {
				sawTodo = true
			}
		case "END":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}

		if !recognizedAt(stack) {
			task.Unknown = append(task.Unknown, line.raw...)
			continue
		}

		switch name {
		case propSummary:
			task.Summary = unescapeText(value)
			sawField = true
		case propDescription:
			task.Description = unescapeText(value)
			sawField = true
		case propCategories:
			task.Categories = unescapeText(value)
			sawField = true
		case propStatus:
			task.Status = strings.ToUpper(strings.TrimSpace(value))
			sawField = true
		default:
			if name == propUID {
				task.UID = strings.TrimSpace(value)
			}
			task.Unknown = append(task.Unknown, line.raw...)
		}
	}

	if !sawTodo && !sawField {
		return Task{}, ErrMalformedRecord
	}
	if task.Status == "" {
		task.Status = StatusNeedsAction
	}
	return task, nil
}

// recognizedAt reports whether properties at the current nesting level belong
// to a task.
func recognizedAt(stack []string) bool {
	if len(stack) == 0 {
		return true
	}
	return stack[len(stack)-1] == componentTodo
}

// Encode builds a complete record for a new task with a fresh UID. Empty
// description and categories are omitted.
func Encode(summary, description, categories string) (string, error) {
	return encodeAt(time.Now(), uuid.NewString(), summary, description, categories)
}

func encodeAt(now time.Time, uid, summary, description, categories string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", ErrEmptySummary
	}
	stamp := now.UTC().Format(TimestampLayout)

	cal := ical.NewCalendarFor(productName)
	todo := cal.AddTodo(uid)
	todo.SetProperty(ical.ComponentPropertyCreated, stamp)
	todo.SetProperty(ical.ComponentPropertyLastModified, stamp)
	todo.SetProperty(ical.ComponentPropertyDtstamp, stamp)

	// Text fields go through reencodeAt so escaping and folding are the
	// same for new and rewritten records.
	return reencodeAt(now, cal.Serialize(), summary, description, categories, StatusNeedsAction)
}

// Reencode rewrites the task fields of an existing record. Recognized lines
// are substituted in place and keep their parameters; CATEGORIES is removed
// when categories is empty; LAST-MODIFIED is set to the current time. Fields
// missing from the original are inserted before END:VTODO. Every other line,
// including nested components and vendor extensions, is copied unchanged and
// in order.
func Reencode(original, summary, description, categories, status string) (string, error) {
	return reencodeAt(time.Now(), original, summary, description, categories, status)
}

func reencodeAt(now time.Time, original, summary, description, categories, status string) (string, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		status = StatusNeedsAction
	}
	values := map[string]string{
		propSummary:      escapeText(summary),
		propDescription:  escapeText(description),
		propCategories:   escapeList(categories),
		propStatus:       status,
		propLastModified: now.UTC().Format(TimestampLayout),
	}
	// insertion order for fields the original lacks
	order := []string{propLastModified, propSummary, propDescription, propCategories, propStatus}

	var (
		out     []string
		stack   []string
		seen    = map[string]bool{}
		sawTodo bool
	)
	for _, line := range unfold(splitLines(original)) {
		name, params, value, ok := parseContentLine(line.text)
		if !ok {
			out = append(out, line.raw...)
			continue
		}

		inTodo := len(stack) > 0 && stack[len(stack)-1] == componentTodo
		switch {
		case name == "BEGIN":
			component := strings.ToUpper(strings.TrimSpace(value))
			stack = append(stack, component)
			if component == componentTodo {
				sawTodo = true
			}
		case name == "END":
			if inTodo {
				for _, prop := range order {
					if seen[prop] || values[prop] == "" {
						continue
					}
					out = append(out, fold(prop+":"+values[prop])...)
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case inTodo:
			if newValue, known := values[name]; known {
				seen[name] = true
				if name == propCategories && newValue == "" {
					continue
				}
				out = append(out, fold(name+params+":"+newValue)...)
				continue
			}
		}
		out = append(out, line.raw...)
	}

	if !sawTodo {
		return "", ErrMalformedRecord
	}
	return strings.Join(out, "\r\n") + "\r\n", nil
}
