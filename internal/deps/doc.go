// Package deps reports whether the external executables ffloom drives are
// installed, and which versions they are.
package deps
