package engine

import (
	"fmt"
	"strings"

	"github.com/spuriolabs/spurio/pkg/stats"
)

// Method selects the correlation statistic computed on a transformed pair.
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
	MethodKendall  Method = "kendall"
)

// Valid reports whether the method is supported.
func (m Method) Valid() bool {
	switch m {
	case MethodPearson, MethodSpearman, MethodKendall:
		return true
	}
	return false
}

// ParseMethod maps a config string onto a Method, case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// correlate computes the coefficient and p-value for the given method.
func correlate(m Method, x, y []float64) (coefficient, pValue float64, err error) {
	switch m {
	case MethodPearson:
		coefficient = stats.Pearson(x, y)
		pValue = stats.PValue(coefficient, len(x))
	case MethodSpearman:
		coefficient = stats.Spearman(x, y)
		pValue = stats.PValue(coefficient, len(x))
	case MethodKendall:
		coefficient = stats.KendallTau(x, y)
		pValue = stats.KendallPValue(coefficient, len(x))
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	return coefficient, pValue, nil
}
