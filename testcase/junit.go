package testcase

import (
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
)

// WriteJUnit writes the summary as a JUnit XML report with one test suite per
// case file. Assertion failures become <failure> elements, everything else
// becomes <error>.
func (s *Summary) WriteJUnit(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", "ctemock")
	suites.CreateAttr("tests", strconv.Itoa(s.TotalTests))
	suites.CreateAttr("failures", strconv.Itoa(s.count(FailureKindAssertion)))
	suites.CreateAttr("errors", strconv.Itoa(s.FailedTests-s.count(FailureKindAssertion)))
	suites.CreateAttr("time", seconds(s.TotalDuration.Seconds()))

	if s.RunID != "" {
		suites.CreateAttr("id", s.RunID)
	}

	bySuite := make(map[string]*etree.Element)

	for _, result := range s.Results {
		file := result.Case.File

		suite, ok := bySuite[file]
		if !ok {
			suite = suites.CreateElement("testsuite")
			suite.CreateAttr("name", file)
			bySuite[file] = suite
		}

		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", result.Case.Name)
		tc.CreateAttr("classname", file)
		tc.CreateAttr("time", seconds(result.Duration.Seconds()))

		if result.Success {
			continue
		}

		tag := "error"
		if result.Kind() == FailureKindAssertion {
			tag = "failure"
		}

		el := tc.CreateElement(tag)
		el.CreateAttr("type", result.Kind().String())

		if result.Error != nil {
			el.CreateAttr("message", result.Error.Error())
		}

		if result.SQL != "" {
			el.SetText(result.SQL)
		}
	}

	for _, suite := range suites.ChildElements() {
		var tests, failures, errs int

		var total float64

		for _, tc := range suite.ChildElements() {
			tests++

			if tc.SelectElement("failure") != nil {
				failures++
			}

			if tc.SelectElement("error") != nil {
				errs++
			}

			if v, err := strconv.ParseFloat(tc.SelectAttrValue("time", "0"), 64); err == nil {
				total += v
			}
		}

		suite.CreateAttr("tests", strconv.Itoa(tests))
		suite.CreateAttr("failures", strconv.Itoa(failures))
		suite.CreateAttr("errors", strconv.Itoa(errs))
		suite.CreateAttr("time", seconds(total))
	}

	doc.Indent(2)

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}

	return nil
}

func (s *Summary) count(kind FailureKind) int {
	n := 0

	for _, r := range s.Results {
		if !r.Success && r.Kind() == kind {
			n++
		}
	}

	return n
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
