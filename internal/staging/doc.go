// Package staging finds and removes scratch files that interrupted jobs
// leave next to their inputs: temporary outputs carrying the ".ffloom-tmp"
// marker and archive extraction directories.
package staging
