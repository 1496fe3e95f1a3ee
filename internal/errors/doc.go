// Package errors provides coded, actionable errors for the vstate CLI and
// configuration loader.
//
// Each code (e.g. "E100") maps to a category, a short message and a longer
// explanation. Call sites add detail, a fix hint and the underlying cause:
//
//	err := errors.New("E102").
//	    WithDetail(`unknown storage backend "redis"`).
//	    WithSuggestion("Use one of: memory, file, sqlite, s3")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E102: Invalid configuration value
//	//
//	//   unknown storage backend "redis"
//	//
//	//   Hint: Use one of: memory, file, sqlite, s3
//
// Codes are grouped by category:
//   - E100-E199 config: vstate.json and VSTATE_* environment overrides
//   - E200-E299 storage: opening backends and reading or writing keys
//   - E300-E399 cli: command arguments and the debug server
package errors
