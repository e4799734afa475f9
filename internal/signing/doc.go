// Package signing issues and consumes upload authorizations. The server
// side validates a file description, presigns an S3 PUT destination and
// mints a short-lived credential bound to the object key; the client
// side is what the upload pipeline calls during its signing phase.
package signing
