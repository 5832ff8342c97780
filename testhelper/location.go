package testhelper

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
)

// GetCaller returns " (file:line)" of the caller so table driven cases can
// be found from a failing subtest name.
func GetCaller(t *testing.T) string {
	t.Helper()

	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return ""
	}

	return fmt.Sprintf(" (%s:%d)", filepath.Base(file), line)
}
