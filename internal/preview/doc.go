// Package preview renders line diffs of files a dry run would have rewritten.
package preview
