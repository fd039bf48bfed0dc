// Package lcov implements a parser for LCOV coverage format.
//
// LCOV format is widely used by:
//   - nyc/c8/Jest (JavaScript/TypeScript)
//   - pytest-cov (Python)
//   - GCC/LLVM gcov
//
// LCOV has no statement records, so statements mirror lines.
package lcov

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

// Parser implements ReportParser for LCOV format.
type Parser struct{}

// New creates a new LCOV parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the format this parser handles.
func (p *Parser) Format() application.Format {
	return application.FormatLCOV
}

// record accumulates one SF..end_of_record block.
type record struct {
	file      string
	lines     map[int]int
	lineOrder []int
	lf, lh    int

	branchesFound, branchesHit int
	brf, brh                   int

	functions     map[string]int
	functionOrder []string
	fnf, fnh      int
}

func newRecord(file string) *record {
	return &record{
		file:      file,
		lines:     make(map[int]int),
		functions: make(map[string]int),
	}
}

func (r *record) coverage() domain.FileCoverage {
	lines := domain.CoverageStat{Total: len(r.lineOrder)}
	for _, n := range r.lineOrder {
		if r.lines[n] > 0 {
			lines.Covered++
		}
	}
	lines = preferSummary(lines, r.lf, r.lh)

	branches := preferSummary(domain.CoverageStat{Covered: r.branchesHit, Total: r.branchesFound}, r.brf, r.brh)

	functions := domain.CoverageStat{Total: len(r.functionOrder)}
	for _, name := range r.functionOrder {
		if r.functions[name] > 0 {
			functions.Covered++
		}
	}
	functions = preferSummary(functions, r.fnf, r.fnh)

	return domain.FileCoverage{
		Statements: lines,
		Branches:   branches,
		Functions:  functions,
		Lines:      lines,
	}
}

// preferSummary takes the larger of the counted records and the *F/*H
// summary lines, since some generators emit only one of them.
func preferSummary(counted domain.CoverageStat, found, hit int) domain.CoverageStat {
	if found > counted.Total {
		counted.Total = found
	}
	if hit > counted.Covered {
		counted.Covered = hit
	}
	if counted.Covered > counted.Total {
		counted.Covered = counted.Total
	}
	return counted
}

// Parse reads an LCOV tracefile and returns per-file coverage.
func (p *Parser) Parse(path string) (domain.Report, error) {
	file, err := pathutil.Open(path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("open lcov file: %w", err)
	}
	defer file.Close()

	report := domain.NewReport()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var current *record
	flush := func() {
		if current != nil && current.file != "" {
			report.Coverage.Merge(current.file, current.coverage())
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "end_of_record" {
			flush()
			continue
		}

		tag, value, ok := strings.Cut(line, ":")
		if !ok {
			return domain.Report{}, fmt.Errorf("lcov line %d: malformed record %q", lineNo, line)
		}

		if tag == "SF" {
			flush()
			current = newRecord(pathutil.ReportKey(value))
			continue
		}
		if current == nil {
			// TN and anything else outside a record
			continue
		}

		switch tag {
		case "DA":
			// DA:line_number,execution_count[,checksum]
			parts := strings.Split(value, ",")
			if len(parts) < 2 {
				continue
			}
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return domain.Report{}, fmt.Errorf("lcov line %d: bad line number: %w", lineNo, err)
			}
			count := parseCount(parts[1])
			if _, seen := current.lines[n]; !seen {
				current.lineOrder = append(current.lineOrder, n)
			}
			current.lines[n] += count

		case "BRDA":
			// BRDA:line,block,branch,taken ("-" when never evaluated)
			parts := strings.Split(value, ",")
			if len(parts) < 4 {
				continue
			}
			current.branchesFound++
			if parseCount(parts[3]) > 0 {
				current.branchesHit++
			}

		case "FN":
			// FN:line_number,function_name
			if _, name, ok := strings.Cut(value, ","); ok {
				current.addFunction(name, 0)
			}

		case "FNDA":
			// FNDA:execution_count,function_name
			if count, name, ok := strings.Cut(value, ","); ok {
				current.addFunction(name, parseCount(count))
			}

		case "LF":
			current.lf = parseCount(value)
		case "LH":
			current.lh = parseCount(value)
		case "BRF":
			current.brf = parseCount(value)
		case "BRH":
			current.brh = parseCount(value)
		case "FNF":
			current.fnf = parseCount(value)
		case "FNH":
			current.fnh = parseCount(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return domain.Report{}, fmt.Errorf("scan lcov file: %w", err)
	}

	// Handle case where file doesn't end with end_of_record
	flush()

	return report, nil
}

func (r *record) addFunction(name string, count int) {
	if _, seen := r.functions[name]; !seen {
		r.functionOrder = append(r.functionOrder, name)
	}
	r.functions[name] += count
}

func parseCount(s string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return 0
	}
	return int(n)
}

// ParseAll merges multiple LCOV tracefiles in argument order.
func (p *Parser) ParseAll(paths []string) (domain.Report, error) {
	merged := domain.NewReport()
	for _, path := range paths {
		report, err := p.Parse(path)
		if err != nil {
			return domain.Report{}, err
		}
		merged.Merge(report)
	}
	return merged, nil
}
