// Package model defines the declarative form definition consumed by the
// engine: a FormStructure is an ordered list of FormField values, and order is
// both rendering order and submission column order. Field types form a closed
// enumeration (see FieldTypes) so renderers can switch exhaustively, and the
// recognised per-field configuration lives in explicit structs
// (AdditionalOptions, AdditionalValidation) rather than open maps. JSON and
// YAML tags mirror the payloads served by the forms backend (`attrs`,
// `isInternal`, `additionalOptions.useDefaultValuesFrom`, ...).
package model
