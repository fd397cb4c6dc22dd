package tagged

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeSourceMinimal(t *testing.T) {
	src := RuntimeSource(true)
	// The value type and wrappers ship always; stubs only in minimal mode.
	assert.Contains(t, src, "enum Value")
	assert.Contains(t, src, "pub fn json_dumps")
	assert.Contains(t, src, "pub fn b64encode")
	assert.Contains(t, src, "pub fn random")
	assert.Contains(t, src, "pub fn finditer")
	assert.Contains(t, src, "pub fn mktime")
	assert.Contains(t, src, "pub fn localtime")
}

func TestRuntimeSourceFull(t *testing.T) {
	src := RuntimeSource(false)
	assert.Contains(t, src, "enum Value")
	assert.NotContains(t, src, "pub fn json_dumps")

	// Full mode is a strict prefix of minimal mode.
	assert.True(t, strings.HasPrefix(RuntimeSource(true), src))
}

func TestRuntimeSourceArithTrait(t *testing.T) {
	// The dispatcher's py_* calls resolve against the trait in both modes.
	for _, minimal := range []bool{true, false} {
		src := RuntimeSource(minimal)
		assert.Contains(t, src, "pub trait PyArith")
		for _, m := range []string{"py_add", "py_sub", "py_mul", "py_div", "py_mod"} {
			assert.Contains(t, src, "fn "+m)
		}
	}
}

func TestRuntimeSourceColorHelpers(t *testing.T) {
	src := RuntimeSource(false)
	for _, fn := range []string{"rgb_to_hsv", "hsv_to_rgb", "rgb_to_hls", "hls_to_rgb"} {
		assert.Contains(t, src, "pub fn "+fn)
	}
}
