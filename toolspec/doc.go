// Package toolspec defines the tool-catalogue model: tool definitions,
// parameter schemas, and constraint validation.
//
// A ToolSpec describes one callable tool (name, description, parameters).
// Parameter constraints cover regexp patterns, enumeration membership,
// nested schemas, and optional CEL expressions evaluated against the
// supplied value. The evaluation engine uses constraint validation to
// verify error_param ground truth, and the perturbation engine rewrites
// catalogues of ToolSpecs when building decoys.
//
// ToolSpecs are immutable once loaded for a sample; all perturbation
// transforms deep-copy before modifying.
package toolspec
