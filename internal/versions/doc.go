// Package versions parses and orders dotted numeric release versions.
//
// Version values compare segment by segment with missing trailing segments
// treated as zero, so "1.2" and "1.2.0" are equal. Newer selects the
// candidates strictly greater than a pinned version and Constraint narrows
// them with an optional boolean expression.
package versions
