// Package istanbul implements a parser for istanbul JSON coverage.
//
// Two documents are accepted: the raw coverage map written by istanbul's
// json reporter (coverage-final.json) and Jest's --json output, which wraps
// the same map under "coverageMap" next to the test results. Files keep the
// order in which the document lists them.
package istanbul

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

// Parser implements ReportParser for istanbul JSON.
type Parser struct{}

// New creates a new istanbul parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the format this parser handles.
func (p *Parser) Format() application.Format {
	return application.FormatIstanbul
}

// Parse reads an istanbul coverage map or a Jest result document.
func (p *Parser) Parse(path string) (domain.Report, error) {
	data, err := pathutil.ReadFile(path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("read istanbul report: %w", err)
	}
	report, err := ParseDocument(data)
	if err != nil {
		return domain.Report{}, fmt.Errorf("parse istanbul report %s: %w", path, err)
	}
	return report, nil
}

// ParseDocument parses an in-memory istanbul or Jest document.
func ParseDocument(data []byte) (domain.Report, error) {
	report := domain.NewReport()

	coverageMap := data
	value, dataType, _, err := jsonparser.Get(data, "coverageMap")
	switch {
	case err == nil:
		if dataType != jsonparser.Object {
			return domain.Report{}, errors.New("coverageMap is not an object")
		}
		coverageMap = value
		report.TestsFailed = testsFailed(data)
	case !errors.Is(err, jsonparser.KeyPathNotFoundError):
		return domain.Report{}, err
	}

	err = jsonparser.ObjectEach(coverageMap, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		if dataType != jsonparser.Object {
			return fmt.Errorf("coverage of %q is not an object", name)
		}
		fc, recorded, err := fileCoverage(value)
		if err != nil {
			return fmt.Errorf("coverage of %q: %w", name, err)
		}
		if recorded == "" {
			recorded = name
		}
		report.Coverage.Merge(pathutil.ReportKey(recorded), fc)
		return nil
	})
	if err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

// testsFailed reads Jest's aggregated result flags.
func testsFailed(data []byte) bool {
	if success, err := jsonparser.GetBoolean(data, "success"); err == nil && !success {
		return true
	}
	if failed, err := jsonparser.GetInt(data, "numFailedTests"); err == nil && failed > 0 {
		return true
	}
	return false
}

// fileCoverage converts one istanbul FileCoverage object. It returns the
// "path" the object records, if any.
func fileCoverage(data []byte) (domain.FileCoverage, string, error) {
	// Serialized FileCoverage instances wrap their payload in "data".
	if inner, dataType, _, err := jsonparser.Get(data, "data"); err == nil && dataType == jsonparser.Object {
		data = inner
	}
	recorded, _ := jsonparser.GetString(data, "path")

	statementLines := make(map[string]int64)
	err := eachEntry(data, func(id, loc []byte) error {
		if line, err := jsonparser.GetInt(loc, "start", "line"); err == nil {
			statementLines[string(id)] = line
		}
		return nil
	}, "statementMap")
	if err != nil {
		return domain.FileCoverage{}, "", err
	}

	var fc domain.FileCoverage
	lineHits := make(map[int64]bool)
	var lineOrder []int64

	err = eachEntry(data, func(id, value []byte) error {
		count, err := hits(value)
		if err != nil {
			return fmt.Errorf("statement %s: %w", id, err)
		}
		fc.Statements = fc.Statements.Add(counted(count))
		if line, ok := statementLines[string(id)]; ok {
			if _, seen := lineHits[line]; !seen {
				lineOrder = append(lineOrder, line)
			}
			lineHits[line] = lineHits[line] || count > 0
		}
		return nil
	}, "s")
	if err != nil {
		return domain.FileCoverage{}, "", err
	}

	err = eachEntry(data, func(id, value []byte) error {
		count, err := hits(value)
		if err != nil {
			return fmt.Errorf("function %s: %w", id, err)
		}
		fc.Functions = fc.Functions.Add(counted(count))
		return nil
	}, "f")
	if err != nil {
		return domain.FileCoverage{}, "", err
	}

	err = eachEntry(data, func(id, value []byte) error {
		var armErr error
		_, err := jsonparser.ArrayEach(value, func(arm []byte, _ jsonparser.ValueType, _ int, err error) {
			if armErr != nil {
				return
			}
			if err != nil {
				armErr = err
				return
			}
			count, err := hits(arm)
			if err != nil {
				armErr = err
				return
			}
			fc.Branches = fc.Branches.Add(counted(count))
		})
		if err != nil {
			return fmt.Errorf("branch %s: %w", id, err)
		}
		if armErr != nil {
			return fmt.Errorf("branch %s: %w", id, armErr)
		}
		return nil
	}, "b")
	if err != nil {
		return domain.FileCoverage{}, "", err
	}

	for _, line := range lineOrder {
		fc.Lines = fc.Lines.Add(counted(boolHits(lineHits[line])))
	}

	return fc, recorded, nil
}

// eachEntry walks the object at key. A missing key is an empty object.
func eachEntry(data []byte, fn func(key, value []byte) error, key string) error {
	err := jsonparser.ObjectEach(data, func(k, v []byte, _ jsonparser.ValueType, _ int) error {
		return fn(k, v)
	}, key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil
	}
	return err
}

func hits(value []byte) (float64, error) {
	return jsonparser.ParseFloat(value)
}

func counted(count float64) domain.CoverageStat {
	stat := domain.CoverageStat{Total: 1}
	if count > 0 {
		stat.Covered = 1
	}
	return stat
}

func boolHits(hit bool) float64 {
	if hit {
		return 1
	}
	return 0
}

// ParseAll merges several istanbul reports in argument order.
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
