package testcase

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	passFmt    = color.New(color.FgGreen).SprintFunc()
	failFmt    = color.New(color.FgRed).SprintFunc()
	headerFmt  = color.New(color.FgBlue, color.Bold).SprintfFunc()
	kindFmt    = color.New(color.FgYellow).SprintfFunc()
	sqlLineFmt = color.New(color.Faint).SprintFunc()
)

// Success reports whether every case passed.
func (s *Summary) Success() bool {
	return s.FailedTests == 0
}

// Failures returns the failed results.
func (s *Summary) Failures() []Result {
	var failed []Result

	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	return failed
}

// Print writes the summary. With verbose, the mocked SQL of failed cases is
// included.
func (s *Summary) Print(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", headerFmt("=== Test Summary ==="))
	fmt.Fprintf(w, "Tests: %d total, %s passed, %s failed\n",
		s.TotalTests, passFmt(s.PassedTests), failFmt(s.FailedTests))
	fmt.Fprintf(w, "Duration: %.3fs\n", s.TotalDuration.Seconds())

	if s.FailedTests > 0 {
		fmt.Fprintf(w, "\nFailed tests:\n")

		for _, result := range s.Failures() {
			fmt.Fprintf(w, "  %s %s\n", result.Case.ID(), kindFmt("[%s]", result.Kind()))

			if result.Error != nil {
				fmt.Fprintf(w, "    Error: %v\n", result.Error)
			}

			if verbose && result.SQL != "" {
				for _, line := range strings.Split(result.SQL, "\n") {
					fmt.Fprintf(w, "      %s\n", sqlLineFmt(line))
				}
			}
		}
	}

	if s.FailedTests == 0 {
		fmt.Fprintf(w, "\n%s\n", passFmt("All tests passed! ✅"))
	} else {
		fmt.Fprintf(w, "\n%s\n", failFmt("Some tests failed! ❌"))
	}
}
