package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruledxml/rules"
)

func TestCheckRequired_AllSatisfied(t *testing.T) {
	doc := parseDoc(t, `<doc><id>42</id><empty/></doc>`)

	err := CheckRequired(doc,
		[]string{"/doc/id", "/doc/empty"},
		[]string{"/doc/id"},
		nil, "in.xml")
	assert.NoError(t, err)
}

func TestCheckRequired_MissingPath(t *testing.T) {
	doc := parseDoc(t, `<doc/>`)

	err := CheckRequired(doc, []string{"/doc/id"}, nil, nil, "in.xml")
	require.Error(t, err)

	var req *RequiredPathError
	require.ErrorAs(t, err, &req)
	assert.Equal(t, "/doc/id", req.Path)
	assert.Equal(t, "in.xml", req.File)
	assert.False(t, req.Empty)
	assert.Contains(t, err.Error(), `"in.xml"`)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestCheckRequired_EmptyValue(t *testing.T) {
	doc := parseDoc(t, `<doc><id></id></doc>`)

	err := CheckRequired(doc, nil, []string{"/doc/id"}, nil, "")
	require.Error(t, err)

	var req *RequiredPathError
	require.ErrorAs(t, err, &req)
	assert.True(t, req.Empty)
	assert.Contains(t, err.Error(), "must contain a value")
}

func TestCheckRequired_NonemptyCoversMissing(t *testing.T) {
	doc := parseDoc(t, `<doc/>`)

	err := CheckRequired(doc, nil, []string{"/doc/id"}, nil, "")
	require.Error(t, err)

	var req *RequiredPathError
	require.ErrorAs(t, err, &req)
	assert.True(t, req.Empty)
}

func TestCheckRequired_PrefixedPath(t *testing.T) {
	doc := parseDoc(t, `<d:doc xmlns:d="http://example.org/d"><d:id>7</d:id></d:doc>`)
	table := []rules.Binding{{Scope: "/", Prefix: "d", URI: "http://example.org/d"}}

	assert.NoError(t, CheckRequired(doc, []string{"/d:doc/d:id"}, nil, table, ""))
	require.Error(t, CheckRequired(doc, []string{"/d:doc/d:other"}, nil, table, ""))
}
