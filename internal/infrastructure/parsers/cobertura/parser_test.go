package cobertura

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Format(t *testing.T) {
	p := New()
	assert.Equal(t, application.FormatCobertura, p.Format())
}

func TestParser_Parse_ValidCobertura(t *testing.T) {
	content := `<?xml version="1.0"?>
<coverage version="1.0">
  <packages>
    <package name="com.example">
      <classes>
        <class name="Main" filename="src/Main.java">
          <lines>
            <line number="1" hits="1"/>
            <line number="2" hits="1"/>
            <line number="3" hits="0"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	report, err := New().Parse(createTempFile(t, content))

	require.NoError(t, err)
	require.Equal(t, 1, report.Coverage.Len())
	fc, ok := report.Coverage.Get("src/Main.java")
	require.True(t, ok)
	assert.Equal(t, domain.CoverageStat{Covered: 2, Total: 3}, fc.Lines)
	assert.Equal(t, fc.Lines, fc.Statements)
}

func TestParser_Parse_BranchesAndMethods(t *testing.T) {
	content := `<?xml version="1.0" ?>
<coverage lines-valid="5" lines-covered="3" branches-valid="4" branches-covered="3">
  <sources>
    <source>/repo</source>
  </sources>
  <packages>
    <package name="src.stages">
      <classes>
        <class name="runTest.ts" filename="src/stages/runTest.ts">
          <methods>
            <method name="runTest" hits="1" signature="()V">
              <lines>
                <line number="2" hits="1"/>
              </lines>
            </method>
            <method name="unused" hits="0" signature="()V">
              <lines>
                <line number="9" hits="0"/>
              </lines>
            </method>
          </methods>
          <lines>
            <line number="2" hits="1"/>
            <line number="3" hits="1" branch="true" condition-coverage="50% (1/2)"/>
            <line number="4" hits="1" branch="true" condition-coverage="100% (2/2)"/>
            <line number="9" hits="0"/>
            <line number="10" hits="0"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	report, err := New().Parse(createTempFile(t, content))

	require.NoError(t, err)
	fc, ok := report.Coverage.Get("/repo/src/stages/runTest.ts")
	require.True(t, ok, "relative filename should be joined to the source root, got %v", report.Coverage.Paths())
	assert.Equal(t, domain.CoverageStat{Covered: 3, Total: 5}, fc.Lines)
	assert.Equal(t, domain.CoverageStat{Covered: 3, Total: 4}, fc.Branches)
	assert.Equal(t, domain.CoverageStat{Covered: 1, Total: 2}, fc.Functions)
}

func TestParser_Parse_MultipleClassesSameFile(t *testing.T) {
	content := `<?xml version="1.0"?>
<coverage>
  <packages>
    <package name="app">
      <classes>
        <class name="Outer" filename="app/Outer.java">
          <lines><line number="1" hits="1"/></lines>
        </class>
        <class name="Outer$Inner" filename="app/Outer.java">
          <lines><line number="10" hits="0"/></lines>
        </class>
        <class name="Other" filename="app/Other.java">
          <lines><line number="1" hits="0"/></lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	report, err := New().Parse(createTempFile(t, content))

	require.NoError(t, err)
	assert.Equal(t, []string{"app/Outer.java", "app/Other.java"}, report.Coverage.Paths())
	fc, _ := report.Coverage.Get("app/Outer.java")
	assert.Equal(t, domain.CoverageStat{Covered: 1, Total: 2}, fc.Lines)
}

func TestParser_Parse_NoFilename(t *testing.T) {
	content := `<?xml version="1.0"?>
<coverage>
  <packages>
    <package name="app">
      <classes>
        <class name="Ghost">
          <lines><line number="1" hits="1"/></lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

	report, err := New().Parse(createTempFile(t, content))

	require.NoError(t, err)
	assert.Equal(t, 0, report.Coverage.Len())
}

func TestParser_Parse_FileNotFound(t *testing.T) {
	_, err := New().Parse("/nonexistent/coverage.xml")

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestParser_Parse_InvalidXML(t *testing.T) {
	_, err := New().Parse(createTempFile(t, "<coverage><packages>"))

	assert.Error(t, err)
}

func TestParser_ParseAll_MergesProfiles(t *testing.T) {
	first := createTempFile(t, `<coverage><packages><package><classes>
<class filename="a.py"><lines><line number="1" hits="1"/></lines></class>
</classes></package></packages></coverage>`)
	second := createTempFile(t, `<coverage><packages><package><classes>
<class filename="a.py"><lines><line number="1" hits="0"/></lines></class>
<class filename="b.py"><lines><line number="1" hits="1"/></lines></class>
</classes></package></packages></coverage>`)

	report, err := New().ParseAll([]string{first, second})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, report.Coverage.Paths())
	fc, _ := report.Coverage.Get("a.py")
	assert.Equal(t, domain.CoverageStat{Covered: 1, Total: 2}, fc.Lines)
}

func TestParser_ParseAll_EmptyPaths(t *testing.T) {
	report, err := New().ParseAll(nil)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Coverage.Len())
}

// createTempFile creates a temporary file with the given content.
func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpdir := t.TempDir()
	tmpfile := filepath.Join(tmpdir, "coverage.xml")
	err := os.WriteFile(tmpfile, []byte(content), 0o644)
	require.NoError(t, err)
	return tmpfile
}
