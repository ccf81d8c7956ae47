// Package callexpr provides the call-expression model used throughout the
// evaluation engine: a typed representation of a tool invocation
// (function name plus keyword arguments), a parser for the textual surface
// form emitted by models, and a round-tripping serializer.
//
// The surface grammar is a sequence of keyword-only call expressions,
// optionally wrapped in square brackets and separated by commas or newlines:
//
//	[Name(key='value', key2=123, key3=true, key4=['a','b'], key5={'k':'v'})]
//
// Argument values are typed as booleans, numbers, strings, ordered lists,
// or string-keyed maps. Parsing preserves emission order of both calls and
// arguments, which trajectory scoring depends on; parallel-call matching
// ignores order.
//
// Parsing never panics on malformed input: any text outside the grammar
// produces a *ParseError, which scoring layers convert to an output_format
// result.
package callexpr
