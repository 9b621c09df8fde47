// Package filter evaluates expr-lang expressions against sam.gov search
// results, for example:
//
//	Active and contains(Agency, "army") and PublishDate > daysAgo(14)
//
// Besides the helpers (contains, startsWith, daysAgo, parseDate, ...) an
// expression sees the raw record as Opportunity, lookup functions field,
// text and has taking dotted paths, and the shortcuts ID, Title,
// SolicitationNumber, Type, Agency, Active, PublishDate, ResponseDate and
// ModifiedDate.
package filter
