// Package calstore defines the calendar backend contract used by the shopping
// adapter and provides an in-memory implementation of it.
//
// Calendars are the unit of sharing and hold task objects whose bodies are
// complete iCalendar documents. Each object carries an ETag that changes
// whenever its body changes; UpdateTask accepts an If-Match style ETag to
// detect concurrent modification.
package calstore
