package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRead(t *testing.T) {
	info := Read()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
	assert.LessOrEqual(t, len(info.Commit), 12)
}

func TestRead_LinkerValues(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	version = "2.1.0"
	assert.Equal(t, "2.1.0", Read().Version)
}
