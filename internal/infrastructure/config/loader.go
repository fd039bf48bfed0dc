package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
	"github.com/felixgeelhaar/covergate/internal/threshold"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".covergate.yaml"

type Loader struct{}

type fileConfig struct {
	Report            fileReport `yaml:"report"`
	WorkingDirectory  string     `yaml:"workingDirectory,omitempty"`
	CoverageThreshold thresholds `yaml:"coverageThreshold"`
	Log               fileLog    `yaml:"log,omitempty"`
}

type fileReport struct {
	Paths  []string `yaml:"paths,omitempty"`
	Format string   `yaml:"format,omitempty"`
}

type fileLog struct {
	Level    string `yaml:"level,omitempty"`
	Filename string `yaml:"filename,omitempty"`
}

// thresholds decodes coverageThreshold from the node tree so selectors keep
// their declaration order.
type thresholds struct {
	spec domain.ThresholdSpec
}

func (t *thresholds) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: coverageThreshold must be a mapping of selector to thresholds", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if valueNode.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: threshold %q must be a mapping of metric to percentage", valueNode.Line, keyNode.Value)
		}
		single := make(domain.SingleThreshold, len(valueNode.Content)/2)
		for j := 0; j+1 < len(valueNode.Content); j += 2 {
			metricNode, minNode := valueNode.Content[j], valueNode.Content[j+1]
			metric, ok := domain.ParseMetric(metricNode.Value)
			if !ok {
				return fmt.Errorf("line %d: threshold %q: unknown metric %q", metricNode.Line, keyNode.Value, metricNode.Value)
			}
			var minimum float64
			if err := minNode.Decode(&minimum); err != nil {
				return fmt.Errorf("line %d: threshold %q: %s must be a number", minNode.Line, keyNode.Value, metric)
			}
			single[metric] = minimum
		}
		t.spec.Set(keyNode.Value, single)
	}
	return nil
}

func (t thresholds) MarshalYAML() (interface{}, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range t.spec.Entries {
		metrics := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
		for _, metric := range domain.Metrics {
			minimum, ok := entry.Threshold[metric]
			if !ok {
				continue
			}
			metrics.Content = append(metrics.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(metric)},
				&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(minimum, 'f', -1, 64)},
			)
		}
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Selector},
			metrics,
		)
	}
	return out, nil
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := pathutil.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return application.Config{}, fmt.Errorf("%w: %s", application.ErrConfigNotFound, path)
		}
		return application.Config{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return application.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML (or JSON) config document.
func Parse(raw []byte) (application.Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return application.Config{}, err
	}

	format, err := parseFormat(fc.Report.Format)
	if err != nil {
		return application.Config{}, err
	}

	spec := fc.CoverageThreshold.spec
	if err := spec.Validate(); err != nil {
		return application.Config{}, err
	}
	for _, selector := range spec.Selectors() {
		if selector == domain.GlobalSelector {
			continue
		}
		if !threshold.ValidatePattern(selector) {
			return application.Config{}, fmt.Errorf("threshold %q: malformed glob pattern", selector)
		}
	}

	return application.Config{
		Report: application.ReportConfig{
			Paths:  fc.Report.Paths,
			Format: format,
		},
		WorkingDirectory: fc.WorkingDirectory,
		Thresholds:       spec,
		Log: application.LogConfig{
			Level:    fc.Log.Level,
			Filename: fc.Log.Filename,
		},
	}, nil
}

func parseFormat(s string) (application.Format, error) {
	switch f := application.Format(s); f {
	case "":
		return application.FormatAuto, nil
	case application.FormatAuto, application.FormatIstanbul, application.FormatLCOV,
		application.FormatCobertura, application.FormatGo:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Report: fileReport{
			Paths: cfg.Report.Paths,
		},
		WorkingDirectory:  cfg.WorkingDirectory,
		CoverageThreshold: thresholds{spec: cfg.Thresholds},
		Log: fileLog{
			Level:    cfg.Log.Level,
			Filename: cfg.Log.Filename,
		},
	}
	if cfg.Report.Format != application.FormatAuto {
		out.Report.Format = string(cfg.Report.Format)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
