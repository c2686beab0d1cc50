// Package brief holds the domain rules for briefs and their responses: the
// publish gate, the question-list reducer used by the builder, the shared
// header interpretation used by both renderings, defensive decoding of stored
// semi-structured fields, and answer normalization.
//
// Everything here is pure: no I/O, no clocks except where a time is passed in.
package brief
