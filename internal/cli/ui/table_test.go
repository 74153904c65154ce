package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Name", "Class", "Warnings"}, true)
	table.AddRow("Post", "Post", "0")
	table.AddRow("Author_v2", "Author", "1")
	assert.Equal(t, 2, table.Len())

	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name       Class   Warnings", lines[0])
	assert.Equal(t, "─────────  ──────  ────────", lines[1])
	assert.Equal(t, "Post       Post    0", lines[2])
	assert.Equal(t, "Author_v2  Author  1", lines[3])
}

func TestTableDropsExtraCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Name"}, true)
	table.AddRow("Post", "ignored")
	table.Render()

	assert.NotContains(t, buf.String(), "ignored")
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, nil, true).Render()
	assert.Empty(t, buf.String())
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
	assert.Equal(t, "─ ", padRight("─", 2))
}
