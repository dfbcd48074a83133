// Package main is the pagespec inspection tool.
//
// It loads scripts into a sandboxed page exactly as a test suite's setup
// would, then reports what the page exports. It never runs tests itself.
//
// Usage:
//
//	# Load one script and list its globals
//	pagespec -script examples/walkthrough/index.js
//
//	# Evaluate an expression against the loaded page
//	pagespec -script index.js -eval 'sayHeyFriend("Kristin")'
//
//	# Show the document after the scripts ran
//	pagespec -script index.js -xpath '//div[@id="app"]'
//
//	# Describe the page in a fixture file, print JSON
//	pagespec -fixture walkthrough.yaml -json
//
//	# Reload on every save and expose Prometheus metrics
//	pagespec -script 'src/**/*.js' -watch -metrics-addr :9090
//
// Configuration:
//   - Environment variables (see internal/config)
//   - CLI flags (override env vars)
package main
