// Package main provides the entry point for the gdprscan CLI.
//
// gdprscan checks websites for GDPR-relevant compliance pages: the privacy
// policy, cookie declaration, data retention and deletion information, and
// the data protection officer contact.
//
// Usage:
//
//	gdprscan scan <site-url>
//	gdprscan scan --list <file>
//
// See --help for all available options.
package main

// main is the entry point for gdprscan.
func main() {
	Execute()
}
