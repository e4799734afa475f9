// Command assetctl is an operator tool for inspecting the upload
// service's asset store without going through the HTTP API.
package main
