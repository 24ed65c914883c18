package model

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalValueNumbers(t *testing.T) {
	assert.Equal(t, "1", CanonicalValue(1))
	assert.Equal(t, "1", CanonicalValue(1.0))
	assert.Equal(t, "1", CanonicalValue(uint8(1)))
	assert.Equal(t, "0.1", CanonicalValue(float32(0.1)))
	assert.Equal(t, "12345678901234567", CanonicalValue(int64(12345678901234567)))
	assert.Equal(t, "10000000000000000", CanonicalValue(1e16))
	assert.Equal(t, "1e+300", CanonicalValue(1e300))
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "12345678901234567", DisplayValue(int64(12345678901234567)))
	assert.Equal(t, "2", DisplayValue(2.0))
	assert.Equal(t, "0.000001", DisplayValue(1e-6))
	assert.Equal(t, "fast", DisplayValue("fast"))
	assert.Equal(t, "", DisplayValue(nil))
}

func TestIsScalarValueRejectsNonFinite(t *testing.T) {
	assert.True(t, IsScalarValue(0.5))
	assert.True(t, IsScalarValue("nan"))
	assert.False(t, IsScalarValue(math.NaN()))
	assert.False(t, IsScalarValue(math.Inf(1)))
	assert.False(t, IsScalarValue(uint64(math.MaxUint64)))
}

func TestRestoreNumbers(t *testing.T) {
	dec := json.NewDecoder(bytes.NewReader([]byte(`{"seed":12345678901234567,"h":0.5,"l":[1,2]}`)))
	dec.UseNumber()
	var values map[string]any
	require.NoError(t, dec.Decode(&values))

	kept := RestoreNumbers(values, true).(map[string]any)
	assert.Equal(t, int64(12345678901234567), kept["seed"])
	assert.Equal(t, 0.5, kept["h"])
	assert.Equal(t, []any{int64(1), int64(2)}, kept["l"])

	assert.Equal(t, 3.0, RestoreNumbers(json.Number("3"), false))
}
