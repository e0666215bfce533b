package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{LoadAvgBelow: floatPtr(4)}.Enabled())
	assert.True(t, Config{CPUBelow: intPtr(90)}.Enabled())
	assert.True(t, Config{Custom: "true"}.Enabled())
}

func TestCheck_NoLimits(t *testing.T) {
	ok, reason := Check(Config{})
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCheck_LoadAvg(t *testing.T) {
	ok, reason := Check(Config{LoadAvgBelow: floatPtr(100000)})
	assert.True(t, ok, reason)

	ok, reason = Check(Config{LoadAvgBelow: floatPtr(-1)})
	assert.False(t, ok)
	assert.Contains(t, reason, "load at")
}

func TestCheck_Memory(t *testing.T) {
	ok, reason := Check(Config{MemoryBelow: intPtr(101)})
	assert.True(t, ok, reason)

	ok, reason = Check(Config{MemoryBelow: intPtr(0)})
	assert.False(t, ok)
	assert.Contains(t, reason, "memory at")
}

func TestCheck_Custom(t *testing.T) {
	ok, reason := Check(Config{Custom: "exit 0"})
	assert.True(t, ok, reason)

	ok, reason = Check(Config{Custom: "exit 1"})
	assert.False(t, ok)
	assert.Contains(t, reason, "custom check failed")
}
