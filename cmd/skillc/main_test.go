package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/ir/codec"
)

const graphA = `
name: dash
tree_id: 1
nodes:
  - {key: seq, type: sequence, x: 0, y: 10}
  - {key: go, type: action, action: set, params: {key: dashing, value: "true"}, x: 0, y: 0}
links:
  - {from: seq, to: go}
`

const graphB = `
name: idle
tree_id: 2
nodes:
  - {key: wait, type: wait, ticks: 3, x: 0, y: 0}
`

func TestRunCompilesDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "dash.yaml"), []byte(graphA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "idle.yml"), []byte(graphB), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("ignored"), 0o644))
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-out", out, "-name", "skills", src}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "compiled 2 trees")

	doc, err := codec.ReadFile(filepath.Join(out, "skills.bytes"))
	require.NoError(t, err)
	require.Len(t, doc.Trees, 2)
	dash := doc.Trees[1]
	assert.Equal(t, "dash", dash.Name)
	assert.Equal(t, ir.NodeID(2), dash.RootID)
	assert.Equal(t, []ir.NodeID{2}, dash.Nodes[1].LinkedIDs)
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, &stdout, &stderr)
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.Code)

	err = run(context.Background(), []string{"-bogus"}, &stdout, &stderr)
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.Code)

	assert.NoError(t, run(context.Background(), []string{"-h"}, &stdout, &stderr))
}

func TestRunRejectsBadGraph(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "empty.yaml"), []byte("name: empty\ntree_id: 3\n"), 0o644))
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-out", out, src}, &stdout, &stderr)
	require.Error(t, err)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
