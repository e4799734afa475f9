// Command uploader is the client side of the upload pipeline: it probes
// the device, compresses images to a budget chosen from observed network
// conditions, and drives them through the upload queue against a running
// upload service.
package main
