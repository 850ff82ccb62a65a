// Package artifact discovers the output of a finished build and stages it.
//
// Each platform family has its own output layout, so discovery is a closed set
// of strategies selected by platform. Desktop builds produce a directory that
// is packed into a zip archive; mobile builds produce a single package file
// that is copied into the staging directory.
package artifact
