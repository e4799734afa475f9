// Package netprofile estimates effective network throughput from
// completed transfer timings and classifies it into bands (slow, medium,
// fast). Each band carries the compression budget used while the
// connection sits in it, which is how observed throughput feeds back into
// how aggressively future uploads are compressed.
//
// The estimate is an exponentially weighted moving average, and it decays
// toward a conservative default when no fresh samples arrive. Band
// thresholds and budgets are loadable from a YAML file; the built-in
// values are starting points, not a contract.
package netprofile
