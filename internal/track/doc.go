// Package track defines the indexed media record and its JSON Lines
// codec.
//
// A record's tag fields are free text; artist, album, and genre may
// themselves hold a delimiter-separated list of values ("Rock; Pop"),
// for which SplitValues and JoinValues are the single codec. Numeric
// fields tolerate string-typed values on decode for compatibility
// with looser producers.
package track
