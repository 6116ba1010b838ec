// Package vtodo encodes and decodes shopping items as iCalendar VTODO
// records.
//
// New records are built with golang-ical. Existing records are rewritten
// line by line by Reencode so that content the codec does not understand
// (vendor X- properties, alarms, custom parameters) survives a round trip
// unchanged and in its original position.
//
// Quantities are not a first-class VTODO property. They are stored in the
// description as a "Quantité: <value>" line and read back with a best-effort
// pattern match.
package vtodo
