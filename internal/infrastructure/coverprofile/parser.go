// Package coverprofile parses Go coverage profiles (go test -coverprofile).
//
// Statements come from the block statement counts and lines from the block
// line spans. Go profiles carry no branch or function data.
package coverprofile

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

type Parser struct {
	// Module maps import paths back to files on disk. The zero value keeps
	// the import paths as recorded.
	Module Module
}

// New creates a parser that resolves files of module.
func New(module Module) *Parser {
	return &Parser{Module: module}
}

func (p *Parser) Format() application.Format {
	return application.FormatGo
}

type block struct {
	file       string
	start, end int
	statements int
}

type fileState struct {
	blocks     map[string]*blockState
	blockOrder []string
}

type blockState struct {
	block
	count int64
}

func (p *Parser) Parse(path string) (domain.Report, error) {
	file, err := pathutil.Open(path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("open coverage profile: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	files := make(map[string]*fileState)
	var order []string

	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if lineNo == 1 {
			if !strings.HasPrefix(line, "mode:") {
				return domain.Report{}, fmt.Errorf("invalid coverage mode line")
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, id, count, err := parseLine(line)
		if err != nil {
			return domain.Report{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		fs, ok := files[b.file]
		if !ok {
			fs = &fileState{blocks: make(map[string]*blockState)}
			files[b.file] = fs
			order = append(order, b.file)
		}
		// Repeated blocks come from merged profiles; keep the highest count.
		bs, ok := fs.blocks[id]
		if !ok {
			bs = &blockState{block: b}
			fs.blocks[id] = bs
			fs.blockOrder = append(fs.blockOrder, id)
		}
		if count > bs.count {
			bs.count = count
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Report{}, err
	}

	report := domain.NewReport()
	for _, name := range order {
		report.Coverage.Merge(p.Module.Resolve(name), files[name].coverage())
	}
	return report, nil
}

func (f *fileState) coverage() domain.FileCoverage {
	var statements domain.CoverageStat
	lineHit := make(map[int]bool)
	for _, id := range f.blockOrder {
		bs := f.blocks[id]
		statements.Total += bs.statements
		if bs.count > 0 {
			statements.Covered += bs.statements
		}
		for n := bs.start; n <= bs.end; n++ {
			lineHit[n] = lineHit[n] || bs.count > 0
		}
	}
	var lines domain.CoverageStat
	for _, hit := range lineHit {
		lines.Total++
		if hit {
			lines.Covered++
		}
	}
	return domain.FileCoverage{Statements: statements, Lines: lines}
}

// parseLine reads "file.go:startLine.startCol,endLine.endCol numStmts count".
func parseLine(line string) (block, string, int64, error) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return block{}, "", 0, fmt.Errorf("invalid coverage line")
	}
	filePart := parts[0]

	idx := strings.LastIndex(filePart, ":")
	if idx <= 0 {
		return block{}, "", 0, fmt.Errorf("invalid block position")
	}
	b := block{file: filePart[:idx]}
	span := filePart[idx+1:]

	startPos, endPos, ok := strings.Cut(span, ",")
	if !ok {
		return block{}, "", 0, fmt.Errorf("invalid block position")
	}
	var err error
	if b.start, err = lineOf(startPos); err != nil {
		return block{}, "", 0, err
	}
	if b.end, err = lineOf(endPos); err != nil {
		return block{}, "", 0, err
	}

	b.statements, err = strconv.Atoi(parts[1])
	if err != nil {
		return block{}, "", 0, fmt.Errorf("invalid statement count")
	}
	count, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return block{}, "", 0, fmt.Errorf("invalid count")
	}
	return b, span, count, nil
}

func lineOf(pos string) (int, error) {
	lineStr, _, _ := strings.Cut(pos, ".")
	n, err := strconv.Atoi(lineStr)
	if err != nil {
		return 0, fmt.Errorf("invalid block position %q", pos)
	}
	return n, nil
}

// ParseAll merges several profiles in argument order.
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
