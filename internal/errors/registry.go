package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Config (E100-E199)

	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "vstate looks for vstate.json in the working directory unless --config names another file.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
	},

	// Storage (E200-E299)

	"E200": {
		Category: CategoryStorage,
		Message:  "Storage backend unavailable",
	},
	"E201": {
		Category: CategoryStorage,
		Message:  "Key not found",
	},
	"E202": {
		Category: CategoryStorage,
		Message:  "Storage operation failed",
	},
	"E203": {
		Category: CategoryStorage,
		Message:  "Backend cannot list keys",
		Detail:   "The configured adapter does not implement key enumeration.",
	},

	// CLI (E300-E399)

	"E300": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"E301": {
		Category: CategoryCLI,
		Message:  "Debug server failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
