// Package textutil holds the text primitives shared by the NLP code:
// accent folding, tokenisation, term-frequency fingerprints with IDF
// weighting, cosine and Jaro-Winkler similarity, and filename sanitising.
package textutil
