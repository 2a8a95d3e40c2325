// Package normalisers provides implementations of the Normaliser interface
// for the document formats accord ingests. Each normaliser knows how to
// extract plain text from a specific MIME type.
//
// Normalisers are registered with the NormaliserRegistry at startup.
package normalisers
