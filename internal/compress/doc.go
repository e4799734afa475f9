// Package compress produces JPEG payloads that fit a size/quality budget.
//
// The engine decodes the source image, fits it inside the budget's
// dimension cap preserving aspect ratio, and encodes at a starting
// quality. If the output exceeds the byte ceiling it steps quality down
// toward the floor, then shrinks dimensions, for a bounded number of
// passes. The loop always terminates: when the budget is unreachable the
// smallest achieved encoding is returned rather than an error.
//
// Two encode paths exist with identical reduction logic: libvips (when
// available, shrink-at-decode, low peak memory) and a pure-Go path built
// on disintegration/imaging. The package performs no network access.
package compress
