// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

// Package hnsw implements the vector similarity index spec.md §4.7
// describes: a hierarchical navigable small-world graph with a
// construction-time array/hashed neighbour-set dispatch, plus the vector
// deduplication table spec.md §4.7 "Vector deduplication" names.
package hnsw

import "math"

// Metric selects one of the eight distance functions spec.md §4.7 lists
// ("a distance-metric is one of Euclidean/Manhattan/Cosine/Hamming/
// Jaccard/Chebyshev/Minkowski(p)/Pearson").
type Metric uint8

const (
	Euclidean Metric = iota
	Manhattan
	Cosine
	Hamming
	Jaccard
	Chebyshev
	Minkowski
	Pearson
)

// Distance computes the configured metric between two equal-length
// vectors. p is only consulted for Minkowski.
func Distance(metric Metric, p float64, a, b []float64) float64 {
	switch metric {
	case Euclidean:
		return minkowski(a, b, 2)
	case Manhattan:
		return minkowski(a, b, 1)
	case Minkowski:
		return minkowski(a, b, p)
	case Chebyshev:
		return chebyshev(a, b)
	case Cosine:
		return cosineDistance(a, b)
	case Hamming:
		return hamming(a, b)
	case Jaccard:
		return jaccardDistance(a, b)
	case Pearson:
		return pearsonDistance(a, b)
	default:
		return minkowski(a, b, 2)
	}
}

func minkowski(a, b []float64, p float64) float64 {
	sum := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		sum += math.Pow(d, p)
	}
	return math.Pow(sum, 1/p)
}

func chebyshev(a, b []float64) float64 {
	max := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > max {
			max = d
		}
	}
	return max
}

func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func hamming(a, b []float64) float64 {
	count := 0.0
	for i := range a {
		if a[i] != b[i] {
			count++
		}
	}
	return count
}

func jaccardDistance(a, b []float64) float64 {
	var inter, union int
	for i := range a {
		an := a[i] != 0
		bn := b[i] != 0
		if an && bn {
			inter++
		}
		if an || bn {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

func pearsonDistance(a, b []float64) float64 {
	n := float64(len(a))
	if n == 0 {
		return 1
	}
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 1
	}
	corr := cov / math.Sqrt(varA*varB)
	return 1 - corr
}
