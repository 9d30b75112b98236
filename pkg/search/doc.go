// Package search parses leaderboard search strings and compiles them into
// matchers.
//
// # Query syntax
//
// A query is split on ';' into OR-groups. Each group may contain any number
// of field tokens of the form @field:value, plus free text:
//
//	mistral                       free text against the model name
//	@precision:float16 llama      field predicate and free text
//	qwen;@license:mit             two groups, either may match
//
// Field names go through a small alias table (precision, architecture,
// license, type). Unknown names are used as record paths as given, so
// @metadata.base_model:... style paths work too.
//
// # Matching
//
// Free text and field values are matched case-insensitively. A term that
// contains a regular expression metacharacter is compiled as a regular
// expression, anything else is a literal substring. A term that fails to
// compile never matches.
//
// # Usage
//
//	q := search.Compile("qwen;@license:mit")
//	if q.Match(&entry) {
//		// keep the row
//	}
//
// Parse exposes the intermediate groups for callers that want to display
// them (see Describe).
package search
