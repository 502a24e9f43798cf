// Package domain contains the core business entities and types for the
// evaluation workshop service.
//
// This package defines:
//   - Entity types (Workshop, Trace, Finding, Rubric, Annotation, etc.)
//   - The Phase enumeration and its transition table
//   - Input/output types for service operations
//   - Domain-level validation rules
//
// # Design Philosophy
//
// Domain types are persistence-agnostic and represent the core business
// concepts independent of how they are stored or transmitted. Phase
// transition rules live here as data so they can be tested exhaustively.
//
// # Key Entities
//
//   - Workshop: the aggregate coordinating one review exercise through its phases
//   - Trace: one captured input/output interaction record under review
//   - Finding: a free-text discovery-phase observation about a trace
//   - Rubric: the scoring question set used during annotation
//   - Annotation: one reviewer's judgment (ratings) on one trace
//
// # Naming Conventions
//
// Types ending in "Input" are used for create/update operations.
// Types ending in "Result" are returned by phase controller operations.
package domain
