package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Method
		wantErr bool
	}{
		{name: "pearson", input: "pearson", want: MethodPearson},
		{name: "uppercase", input: "SPEARMAN", want: MethodSpearman},
		{name: "padded", input: "  Kendall ", want: MethodKendall},
		{name: "empty", input: "", wantErr: true},
		{name: "unsupported", input: "cubic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethod_Valid(t *testing.T) {
	assert.True(t, MethodPearson.Valid())
	assert.True(t, MethodSpearman.Valid())
	assert.True(t, MethodKendall.Valid())
	assert.False(t, Method("cubic").Valid())
	assert.False(t, Method("").Valid())
}

func TestCorrelate_Dispatch(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{2, 4, 6, 8, 10, 12, 14, 16}

	for _, method := range []Method{MethodPearson, MethodSpearman, MethodKendall} {
		coefficient, pValue, err := correlate(method, x, y)
		require.NoError(t, err, string(method))
		assert.InDelta(t, 1.0, coefficient, 1e-9, string(method))
		assert.LessOrEqual(t, pValue, 0.05, string(method))
	}

	_, _, err := correlate(Method("cubic"), x, y)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
