// Package vector holds the similarity math used by search.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of a and b. Lengths must match.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineDistance returns 1 - cos(a, b), in [0, 2].
// Mismatched lengths return ErrDimensionMismatch; a zero vector returns ErrZeroVector.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, domain.ErrZeroVector
	}
	return distance(Dot(a, b), na, nb), nil
}

// Query precomputes the norm of a query vector for repeated distance calls.
type Query struct {
	vec  []float64
	norm float64
}

// NewQuery validates q for use in a scan.
func NewQuery(q []float64) (Query, error) {
	if len(q) == 0 {
		return Query{}, fmt.Errorf("empty query vector: %w", domain.ErrInvalidArgument)
	}
	n := Norm(q)
	if n == 0 {
		return Query{}, fmt.Errorf("query vector: %w", domain.ErrZeroVector)
	}
	return Query{vec: q, norm: n}, nil
}

// Dimensions returns the query vector length.
func (q Query) Dimensions() int { return len(q.vec) }

// Distance returns the cosine distance between the query and v.
func (q Query) Distance(v []float64) (float64, error) {
	if len(v) != len(q.vec) {
		return 0, domain.NewDimensionMismatch(len(q.vec), len(v))
	}
	nv := Norm(v)
	if nv == 0 {
		return 0, domain.ErrZeroVector
	}
	return distance(Dot(q.vec, v), q.norm, nv), nil
}

// distance clamps rounding noise so results stay within [0, 2].
func distance(dot, na, nb float64) float64 {
	cos := dot / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos
}
