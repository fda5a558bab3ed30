// Package planner holds the scheduling engine shared by the API and the
// widget worker: time-of-day normalization, recurrence evaluation, agenda
// expansion, "now" classification and grade/attendance roll-ups.
//
// Every function is pure and safe for concurrent use. Weekdays are numbered
// 1 = Sunday through 7 = Saturday, matching models.Weekday.
package planner
