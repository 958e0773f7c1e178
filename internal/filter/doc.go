// Package filter resolves ambiguous field queries against the track
// library.
//
// Resolution is two-stage. The exact stage applies every active field
// constraint conjunctively with case-insensitive whole-value matching:
// a tag field may itself be a delimited list ("Rock; Pop"), and a
// query value must equal one of its elements, not merely appear as a
// substring. Titles are the exception and always match by substring.
// When the exact stage finds nothing, the fallback stage takes the
// single highest-priority active field (artist, then genre, album,
// title), re-runs it alone as a substring match, and either
// auto-resolves on a single surviving field value or hands the
// candidate list to a disambiguation callback. Queries that carry
// several values for one field skip the exact stage and the
// disambiguation entirely; the caller asked for a union, not a
// clarification.
package filter
