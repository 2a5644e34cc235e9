package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "v1.2.3"
	assert.Equal(t, "usemin v1.2.3 (commit unknown, built unknown)", String())
}
