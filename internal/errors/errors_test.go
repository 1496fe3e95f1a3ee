package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E100",
			wantMsg: "Configuration file not found",
			wantCat: CategoryConfig,
		},
		{
			name:    "storage error",
			code:    "E201",
			wantMsg: "Key not found",
			wantCat: CategoryStorage,
		},
		{
			name:    "cli error",
			code:    "E300",
			wantMsg: "Invalid argument",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("E202").WithDetail(`set "k"`).Wrap(cause)

	want := `E202: Storage operation failed: set "k": disk full`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := Newf(CategoryCLI, "bad %s", "flag")
	if got := plain.Error(); got != "bad flag" {
		t.Errorf("Error() = %q, want %q", got, "bad flag")
	}
}

func TestError_Unwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("E200").Wrap(fmt.Errorf("open: %w", sentinel))

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should see through the wrapped chain")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E202") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("E201")
	wrapped := fmt.Errorf("get: %w", coded)
	if got := FromError(wrapped, "E202"); got != coded {
		t.Error("FromError should return the existing *Error")
	}

	got := FromError(stderrors.New("boom"), "E202")
	if got.Code != "E202" || got.Wrapped == nil {
		t.Errorf("FromError = %+v, want code E202 wrapping boom", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("load: %w", New("E101"))
	if !HasCode(err, "E101") {
		t.Error("HasCode(E101) = false")
	}
	if HasCode(err, "E100") {
		t.Error("HasCode(E100) = true")
	}
	if HasCode(stderrors.New("x"), "E101") {
		t.Error("HasCode on a plain error = true")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").
		WithDetail(`unknown storage backend "redis"`).
		WithSuggestion("Use one of: memory, file, sqlite, s3").
		Wrap(stderrors.New("cause"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E102: Invalid configuration value",
		`unknown storage backend "redis"`,
		"Cause: cause",
		"Hint: Use one of: memory, file, sqlite, s3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got := New("E201").FormatCompact(); got != "E201: Key not found" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E203").WithSuggestion("use sqlite")

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if decoded["code"] != "E203" || decoded["category"] != "storage" || decoded["suggestion"] != "use sqlite" {
		t.Errorf("FormatJSON = %v", decoded)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	PrintError(&b, New("E300").WithDetail("value is not JSON"))
	if !strings.Contains(b.String(), "ERROR E300: Invalid argument") {
		t.Errorf("PrintError(*Error) = %q", b.String())
	}

	b.Reset()
	PrintError(&b, stderrors.New("plain"))
	if !strings.Contains(b.String(), "ERROR: plain") {
		t.Errorf("PrintError(error) = %q", b.String())
	}
}

func TestRegistryCategories(t *testing.T) {
	ranges := map[byte]Category{'1': CategoryConfig, '2': CategoryStorage, '3': CategoryCLI}
	for code, tmpl := range registry {
		if want := ranges[code[1]]; tmpl.Category != want {
			t.Errorf("%s category = %q, want %q", code, tmpl.Category, want)
		}
		if _, ok := Lookup(code); !ok {
			t.Errorf("Lookup(%s) failed", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
