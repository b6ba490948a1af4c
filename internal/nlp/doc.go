// Package nlp implements the text side of the analysis: gendered words,
// name candidate extraction and grouping, cast matching, entity
// co-occurrence ranking and distinctive vocabulary.
package nlp
