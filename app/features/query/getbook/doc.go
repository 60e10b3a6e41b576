// Package getbook reads one catalog entry from the primary.
package getbook
