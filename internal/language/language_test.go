package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	doc, err := ParseQuery(`query GetUser($id: ID!) { user(id: $id) { name } } fragment F on User { name }`)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)
	require.Equal(t, "GetUser", doc.Operations[0].Name)

	_, err = ParseQuery(`query {{`)
	require.Error(t, err)
}

func TestSingleOperation(t *testing.T) {
	doc, err := ParseQuery(`{ a }`)
	require.NoError(t, err)
	op, ok := SingleOperation(doc)
	require.True(t, ok)
	require.Equal(t, Query, op.Operation)

	multi, err := ParseQuery(`query A { a } query B { b }`)
	require.NoError(t, err)
	_, ok = SingleOperation(multi)
	require.False(t, ok)
}

func TestFragmentByName(t *testing.T) {
	doc, err := ParseQuery(`{ ...F } fragment F on Query { a }`)
	require.NoError(t, err)
	require.NotNil(t, FragmentByName(doc, "F"))
	require.Nil(t, FragmentByName(doc, "G"))
}
