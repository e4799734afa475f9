// Package mediatypes defines which file types are accepted by the upload
// pipeline and provides content-based MIME detection. Extension checks are
// advisory only; Sniff inspects the actual bytes so a renamed text file
// cannot masquerade as an image.
package mediatypes
