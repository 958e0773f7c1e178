// Package scanner walks library roots and turns matching files into
// track records.
//
// Scanning is two-phase: a walk first collects every candidate whose
// extension is in the active filter set, which fixes the total for
// progress reporting, then extraction runs over the candidates either
// serially or on a bounded worker pool. Serial mode exists for
// spinning disks, where parallel random access is slower than
// sequential reads. Output order always follows the walk order, so
// repeated scans of an unchanged tree produce identical indexes.
package scanner
