package conditional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTernary(t *testing.T) {
	assert.Equal(t, "live", Ternary(true, "live", "dry run"))
	assert.Equal(t, "dry run", Ternary(false, "live", "dry run"))
	assert.Equal(t, 20, Ternary(true, 20, 0))
}
