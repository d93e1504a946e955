package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"registry/internal/config"
	"registry/internal/intake"
	"registry/internal/pipeline"
	"registry/internal/store"
	"registry/internal/types"
)

// useTempConfig points the globals at a fresh database and resets flags.
func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg = config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "users.db")
	logger = zap.NewNop()

	processEvent, processTitle, processBodyFile, processAuthor = "", "", "", ""
	processLabels, processNumber, processDryRun = nil, 0, false
	parseTitle, parseLabels, parseExpect, previewRaw, jsonOutput = "", nil, "", false, false
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	err := fn(cmd, args)
	return buf.String(), err
}

func TestProcessLocalCreateThenList(t *testing.T) {
	dir := useTempConfig(t)
	processBodyFile = writeFile(t, dir, "new.md", "### Name\n\nAlice\n\n### State\n\nCA\n")
	processAuthor = "alice"
	processLabels = []string{"create"}

	out, err := run(t, runProcess)
	require.NoError(t, err)
	assert.Contains(t, out, "Record **#1** has been created")

	jsonOutput = true
	out, err = run(t, runList)
	require.NoError(t, err)
	var records []types.StoredRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Owner)
}

func TestProcessRejectionReturnsError(t *testing.T) {
	dir := useTempConfig(t)
	processBodyFile = writeFile(t, dir, "bad.md", "---\nname: Alice\n---\n")
	processAuthor = "alice"

	out, err := run(t, runProcess)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrRejected)
	assert.Contains(t, out, "State is required.")
}

func TestProcessEventPayload(t *testing.T) {
	dir := useTempConfig(t)
	processEvent = writeFile(t, dir, "event.json", `{
  "action": "opened",
  "repository": {"full_name": "acme/people"},
  "issue": {
    "number": 12,
    "title": "[Update] Alice",
    "body": "---\nrecordId: 99\nname: Alice\nstate: CA\n---",
    "user": {"login": "alice"},
    "labels": [{"name": "update"}]
  }
}`)

	_, err := run(t, runProcess)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.Equal(t, "acme/people", cfg.GitHub.Repository)
}

func TestProcessDryRunLeavesDatabaseEmpty(t *testing.T) {
	dir := useTempConfig(t)
	processBodyFile = writeFile(t, dir, "new.md", "---\nname: Bob\nstate: TX\n---\n")
	processAuthor = "bob"
	processDryRun = true

	out, err := run(t, runProcess)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")

	out, err = run(t, runList)
	require.NoError(t, err)
	assert.Contains(t, out, "No records.")
}

func TestProcessRequiresInput(t *testing.T) {
	useTempConfig(t)
	_, err := run(t, runProcess)
	assert.Error(t, err)
}

func TestGetAndLatest(t *testing.T) {
	useTempConfig(t)
	s, err := openStore()
	require.NoError(t, err)
	_, err = s.Create(t.Context(), "Alice", "CA", "", "alice")
	require.NoError(t, err)
	_, err = s.Create(t.Context(), "Alice 2", "NV", `{"a":1}`, "alice")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := run(t, runGet, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Record #1")
	assert.Contains(t, out, "(none)")

	out, err = run(t, runLatest, "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Record #2")
	assert.Contains(t, out, "NV")

	_, err = run(t, runGet, "x")
	assert.Error(t, err)
	_, err = run(t, runGet, "42")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestListTable(t *testing.T) {
	useTempConfig(t)
	s, err := openStore()
	require.NoError(t, err)
	_, err = s.Create(t.Context(), "Alice", "CA", "", "alice")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := run(t, runList)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "1 record(s)")
}

func TestParseCommand(t *testing.T) {
	dir := useTempConfig(t)
	path := writeFile(t, dir, "upd.md", "---\nrecord_id: 5\nname: Alice\nstate: CA\noptions: {\"x\": true}\n---\n")

	out, err := run(t, runParse, path)
	require.NoError(t, err)

	var res parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.OperationUpdate, res.Expected)
	require.NotNil(t, res.Record.RecordID)
	assert.Equal(t, int64(5), *res.Record.RecordID)
	assert.True(t, res.Validation.Valid)
	assert.Equal(t, "json", string(res.Options))

	parseLabels = []string{"create"}
	out, err = run(t, runParse, path)
	require.Error(t, err)
	assert.Contains(t, out, "TypeMismatch")
}

func TestParseCommandExpect(t *testing.T) {
	dir := useTempConfig(t)
	path := writeFile(t, dir, "new.md", "---\nname: Alice\nstate: CA\n---\n")

	parseExpect = "Update"
	out, err := run(t, runParse, path)
	require.Error(t, err)
	assert.Contains(t, out, "MissingRecordId")

	parseExpect = "delete"
	_, err = run(t, runParse, path)
	assert.Error(t, err)
}

func TestParseCommandMalformed(t *testing.T) {
	dir := useTempConfig(t)
	path := writeFile(t, dir, "bad.md", "---\nname: Alice\n")

	_, err := run(t, runParse, path)
	assert.ErrorIs(t, err, intake.ErrMalformedFrontmatter)
}

func TestPreviewRaw(t *testing.T) {
	dir := useTempConfig(t)
	previewRaw = true

	out, err := run(t, runPreview, writeFile(t, dir, "ok.md", "### Name\nAlice\n### State\nCA\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "a new record would be created")

	out, err = run(t, runPreview, writeFile(t, dir, "empty.md", "   "))
	require.NoError(t, err)
	assert.Contains(t, out, "issue body is empty")
}

func TestPreviewRendered(t *testing.T) {
	dir := useTempConfig(t)
	out, err := run(t, runPreview, writeFile(t, dir, "ok.md", "### Name\nAlice\n### State\nCA\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
}

func TestMigrate(t *testing.T) {
	useTempConfig(t)
	out, err := run(t, runMigrate)
	require.NoError(t, err)
	assert.Contains(t, out, cfg.Database.Path)
	assert.Contains(t, out, "0001_create_users.sql")
}

func TestSetupAppliesDBFlag(t *testing.T) {
	dir := useTempConfig(t)
	t.Setenv("REGISTRY_DB_PATH", "")
	configPath = filepath.Join(dir, "absent.yaml")
	dbPath = filepath.Join(dir, "flag.db")
	defer func() { configPath, dbPath = config.DefaultPath, "" }()

	require.NoError(t, setup(&cobra.Command{}, nil))
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.NotNil(t, logger)
}
