// Package report writes JUnit XML for a qualification run, carrying the SAI
// versions under test as suite properties.
package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Status is the outcome of a test case.
type Status string

const (
	StatusPassed  Status = "PASS"
	StatusFailed  Status = "FAIL"
	StatusSkipped Status = "SKIP"
	StatusError   Status = "ERROR"
)

// Suite property names for the SAI versions a run qualifies.
const (
	PropOriginVersion  = "sai_origin_version"
	PropUpgradeVersion = "sai_upgrade_version"
)

// CaseResult is one executed test case.
type CaseResult struct {
	Name      string
	ClassName string
	Status    Status
	Duration  time.Duration
	Message   string
	// Output is attached as system-out.
	Output string
}

// Suite collects the cases of one run.
type Suite struct {
	Name       string
	Started    time.Time
	properties []junitProperty
	Cases      []CaseResult
}

// NewSuite starts a suite named name.
func NewSuite(name string) *Suite {
	return &Suite{Name: name, Started: time.Now()}
}

// SetProperty records a suite property, replacing an earlier value.
func (s *Suite) SetProperty(name, value string) {
	for i := range s.properties {
		if s.properties[i].Name == name {
			s.properties[i].Value = value
			return
		}
	}
	s.properties = append(s.properties, junitProperty{Name: name, Value: value})
}

// Property returns a recorded property value.
func (s *Suite) Property(name string) (string, bool) {
	for _, p := range s.properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// SetVersions records the origin and upgrade SAI versions. Both are always
// present in the report, empty when not given.
func (s *Suite) SetVersions(origin, upgrade string) {
	s.SetProperty(PropOriginVersion, origin)
	s.SetProperty(PropUpgradeVersion, upgrade)
}

// Add appends a case result.
func (s *Suite) Add(c CaseResult) {
	if c.ClassName == "" {
		c.ClassName = s.Name
	}
	s.Cases = append(s.Cases, c)
}

// Record runs fn as a case named name and adds its result. The error from
// fn is returned unchanged.
func (s *Suite) Record(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	c := CaseResult{Name: name, Status: StatusPassed, Duration: time.Since(start)}
	if err != nil {
		c.Status = StatusFailed
		c.Message = err.Error()
	}
	s.Add(c)
	return err
}

// Failed reports whether any case failed or errored.
func (s *Suite) Failed() bool {
	for _, c := range s.Cases {
		if c.Status == StatusFailed || c.Status == StatusError {
			return true
		}
	}
	return false
}

// Encode writes the suite as JUnit XML.
func (s *Suite) Encode(w io.Writer) error {
	suite := junitTestSuite{
		Name:      s.Name,
		Timestamp: s.Started.UTC().Format("2006-01-02T15:04:05"),
	}
	if len(s.properties) > 0 {
		suite.Properties = &junitProperties{Props: s.properties}
	}

	for _, c := range s.Cases {
		suite.Tests++
		suite.Time += c.Duration.Seconds()
		tc := junitTestCase{
			Name:      c.Name,
			ClassName: c.ClassName,
			Time:      c.Duration.Seconds(),
			SystemOut: c.Output,
		}
		switch c.Status {
		case StatusFailed:
			suite.Failures++
			tc.Failure = &junitFailure{Message: c.Message, Type: "failure"}
		case StatusSkipped:
			suite.Skipped++
			tc.Skipped = &junitSkipped{Message: c.Message}
		case StatusError:
			suite.Errors++
			tc.Error = &junitError{Message: c.Message, Type: "error"}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(junitTestSuites{Suites: []junitTestSuite{suite}}, "", "  ")
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// WriteJUnit writes the suite to path, creating its directory.
func (s *Suite) WriteJUnit(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// JUnit XML types

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr"`
	Properties *junitProperties `xml:"properties,omitempty"`
	Cases      []junitTestCase  `xml:"testcase"`
}

type junitProperties struct {
	Props []junitProperty `xml:"property"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	Error     *junitError   `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

type junitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}
