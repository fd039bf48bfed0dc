// Package cobertura implements a parser for Cobertura XML coverage format.
//
// Cobertura XML format is widely used by:
//   - istanbul's cobertura reporter (JavaScript/TypeScript)
//   - Python (coverage.py with --xml)
//   - .NET (coverlet)
//   - Many CI tools (Jenkins, Azure DevOps, etc.)
//
// Lines come from <line hits>, branches from the condition-coverage
// attribute and functions from <method>. Statements mirror lines.
package cobertura

import (
	"encoding/xml"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

// coverage represents the root Cobertura XML element.
type coverage struct {
	XMLName  xml.Name `xml:"coverage"`
	Packages []pkg    `xml:"packages>package"`
	Sources  []string `xml:"sources>source"`
}

type pkg struct {
	Name    string  `xml:"name,attr"`
	Classes []class `xml:"classes>class"`
}

type class struct {
	Name     string   `xml:"name,attr"`
	Filename string   `xml:"filename,attr"`
	Lines    []line   `xml:"lines>line"`
	Methods  []method `xml:"methods>method"`
}

type method struct {
	Name  string `xml:"name,attr"`
	Lines []line `xml:"lines>line"`
}

type line struct {
	Number            int    `xml:"number,attr"`
	Hits              int64  `xml:"hits,attr"`
	Branch            bool   `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

// conditionPattern matches the "(covered/total)" part of "50% (1/2)".
var conditionPattern = regexp.MustCompile(`\((\d+)/(\d+)\)`)

type lineState struct {
	hit             bool
	branchesCovered int
	branchesTotal   int
}

// Parser implements ReportParser for Cobertura XML format.
type Parser struct{}

// New creates a new Cobertura parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the format this parser handles.
func (p *Parser) Format() application.Format {
	return application.FormatCobertura
}

// Parse reads a Cobertura XML coverage file and returns per-file coverage.
// Relative class filenames are joined to the first <source> when present.
func (p *Parser) Parse(filePath string) (domain.Report, error) {
	file, err := pathutil.Open(filePath)
	if err != nil {
		return domain.Report{}, fmt.Errorf("open cobertura file: %w", err)
	}
	defer file.Close()

	var cov coverage
	if err := xml.NewDecoder(file).Decode(&cov); err != nil {
		return domain.Report{}, fmt.Errorf("decode cobertura xml: %w", err)
	}

	source := ""
	if len(cov.Sources) > 0 {
		source = strings.TrimSpace(cov.Sources[0])
	}

	report := domain.NewReport()
	for _, pkg := range cov.Packages {
		for _, cls := range pkg.Classes {
			if strings.TrimSpace(cls.Filename) == "" {
				continue
			}
			report.Coverage.Merge(resolveFilename(source, cls.Filename), classCoverage(cls))
		}
	}

	return report, nil
}

func resolveFilename(source, filename string) string {
	key := pathutil.ReportKey(filename)
	if source == "" || path.IsAbs(key) || source == "." {
		return key
	}
	return path.Join(pathutil.ReportKey(source), key)
}

func classCoverage(cls class) domain.FileCoverage {
	states := make(map[int]*lineState)
	record := func(ln line) {
		st, ok := states[ln.Number]
		if !ok {
			st = &lineState{}
			states[ln.Number] = st
		}
		if ln.Hits > 0 {
			st.hit = true
		}
		if covered, total, ok := parseCondition(ln); ok && total > st.branchesTotal {
			st.branchesCovered, st.branchesTotal = covered, total
		}
	}

	for _, ln := range cls.Lines {
		record(ln)
	}

	var functions domain.CoverageStat
	for _, m := range cls.Methods {
		functions.Total++
		called := false
		for _, ln := range m.Lines {
			// Some generators nest lines only under methods.
			record(ln)
			if ln.Hits > 0 {
				called = true
			}
		}
		if called {
			functions.Covered++
		}
	}

	var lines, branches domain.CoverageStat
	for _, st := range states {
		lines.Total++
		if st.hit {
			lines.Covered++
		}
		branches.Total += st.branchesTotal
		branches.Covered += st.branchesCovered
	}

	return domain.FileCoverage{
		Statements: lines,
		Branches:   branches,
		Functions:  functions,
		Lines:      lines,
	}
}

func parseCondition(ln line) (covered, total int, ok bool) {
	if !ln.Branch && ln.ConditionCoverage == "" {
		return 0, 0, false
	}
	m := conditionPattern.FindStringSubmatch(ln.ConditionCoverage)
	if m == nil {
		return 0, 0, false
	}
	covered, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return covered, total, true
}

// ParseAll merges multiple Cobertura XML reports in argument order.
func (p *Parser) ParseAll(paths []string) (domain.Report, error) {
	merged := domain.NewReport()
	for _, reportPath := range paths {
		report, err := p.Parse(reportPath)
		if err != nil {
			return domain.Report{}, err
		}
		merged.Merge(report)
	}
	return merged, nil
}
