package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainObject(t *testing.T) {
	got, err := Extract(`{"title": "Bylaws"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Bylaws"}`, got)
}

func TestExtractStripsMarkdownFence(t *testing.T) {
	input := "```json\n{\"title\": \"Bylaws\", \"doc_type\": \"bylaws\"}\n```"
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Bylaws", "doc_type": "bylaws"}`, got)
}

func TestExtractStripsBareFence(t *testing.T) {
	input := "```\n{\"title\": \"Bylaws\"}\n```"
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Bylaws"}`, got)
}

func TestExtractIgnoresSurroundingProse(t *testing.T) {
	input := `Here is the metadata you asked for: {"title": "Budget 2024"} Let me know if you need anything else.`
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Budget 2024"}`, got)
}

func TestExtractHandlesBracesInsideStrings(t *testing.T) {
	input := `{"description": "Section {3.2} applies", "title": "Rules"}`
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, input, got)
}

func TestExtractHandlesEscapedQuotes(t *testing.T) {
	input := `{"title": "The \"Pool\" Rules"}`
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, input, got)
}

func TestExtractHandlesNestedObjects(t *testing.T) {
	input := `{"meta": {"inner": {"deep": 1}}, "title": "x"}`
	got, err := Extract(input)
	require.NoError(t, err)
	assert.JSONEq(t, input, got)
}

func TestExtractRejectsProseOnly(t *testing.T) {
	_, err := Extract("I could not read the document, sorry.")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	_, err := Extract("   ")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractRejectsUnbalancedBraces(t *testing.T) {
	_, err := Extract(`{"title": "Bylaws"`)
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractTo(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}
	err := ExtractTo("```json\n{\"title\": \"Bylaws\"}\n```", &target)
	require.NoError(t, err)
	assert.Equal(t, "Bylaws", target.Title)
}
