package must

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssert(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	Assert(true, "never")
	assert.Equal(t, -1, code)

	NoError(nil)
	assert.Equal(t, -1, code)

	NoError(errors.New("boom"))
	assert.Equal(t, 1, code)
}
