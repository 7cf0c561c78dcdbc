// Package document rewrites version references embedded in plain text files.
package document
