package dbstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDatabaseName(t *testing.T) {
	name, base, ok := splitDatabaseName("root:pw@tcp(localhost:4000)/eventengine?charset=utf8mb4")
	assert.True(t, ok)
	assert.Equal(t, "eventengine", name)
	assert.Equal(t, "root:pw@tcp(localhost:4000)/?charset=utf8mb4", base)
}

func TestSplitDatabaseNameNoDB(t *testing.T) {
	_, _, ok := splitDatabaseName("root:pw@tcp(localhost:4000)/")
	assert.False(t, ok)
}

func TestIsDuplicateIndexErr(t *testing.T) {
	assert.False(t, isDuplicateIndexErr(nil))
}
