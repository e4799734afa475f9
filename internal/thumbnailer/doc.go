// Package thumbnailer generates 200x200 JPEG previews of uploaded
// assets. The generator runs server side behind a fire-and-forget
// endpoint; Client is what the upload pipeline calls after a successful
// upload.
package thumbnailer
