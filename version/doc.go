// Package version reports the build version of authkit binaries.
package version
