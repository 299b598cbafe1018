package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateTableDDLUsesConfiguredVectorSize(t *testing.T) {
	ddl := createTableDDL(1536)
	require.Contains(t, ddl, "vector(1536)")
	require.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS chunk_embeddings")

	require.Contains(t, createTableDDL(768), "vector(768)")
}

func TestVectorLiteral(t *testing.T) {
	require.Equal(t, "[0.5,-1,0.25]", vectorLiteral([]float32{0.5, -1, 0.25}))
	require.Equal(t, "[]", vectorLiteral(nil))
}
