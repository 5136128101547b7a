package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/unisearch/internal/service"
)

func TestSearchCmd_TextOutput(t *testing.T) {
	dir := seedArchiveRoot(t)

	out, err := execute(t, "search", "maxwell", "--root", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "3 result(s)")
	assert.Contains(t, out, "Ghislaine Maxwell")
	assert.Contains(t, out, "Maxwell deposition transcript")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	dir := seedArchiveRoot(t)

	out, err := execute(t, "search", "maxwell", "--root", dir, "--format", "json")
	require.NoError(t, err)

	var resp service.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, 3, resp.TotalResults)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "e1", resp.Results[0].ID)
}

func TestSearchCmd_Filters(t *testing.T) {
	dir := seedArchiveRoot(t)

	out, err := execute(t, "search", "maxwell", "--root", dir,
		"--fields", "documents", "--doc-type", "pdf", "--format", "json")
	require.NoError(t, err)

	var resp service.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	require.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "d1", resp.Results[0].ID)
}

func TestSearchCmd_BadFieldsFails(t *testing.T) {
	dir := seedArchiveRoot(t)

	_, err := execute(t, "search", "maxwell", "--root", dir, "--fields", "emails")

	require.Error(t, err)
}

func TestSearchCmd_ExactModeRejectsTypos(t *testing.T) {
	dir := seedArchiveRoot(t)

	out, err := execute(t, "search", "ghisline", "--root", dir, "--exact", "--format", "json")
	require.NoError(t, err)

	var resp service.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Zero(t, resp.TotalResults)
}

func TestSuggestCmd(t *testing.T) {
	dir := seedArchiveRoot(t)

	out, err := execute(t, "suggest", "ghis", "--root", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Ghislaine Maxwell")
}

func TestSuggestCmd_RequiresPrefix(t *testing.T) {
	_, err := execute(t, "suggest")

	require.Error(t, err)
}
