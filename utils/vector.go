package utils

import (
	"math"
)

// Linspace returns N evenly spaced values covering the closed interval
// [min, max].
func Linspace(min, max float64, N int) (x []float64) {
	x = make([]float64, N)
	if N == 1 {
		x[0] = min
		return
	}
	h := (max - min) / float64(N-1)
	for i := range x {
		x[i] = min + float64(i)*h
	}
	return
}

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func VecConcat(v1, v2 []float64) (r []float64) {
	r = make([]float64, len(v1)+len(v2))
	copy(r, v1)
	copy(r[len(v1):], v2)
	return
}

func VecScalarMult(v []float64, a float64) (r []float64) {
	r = make([]float64, len(v))
	for i, val := range v {
		r[i] = val * a
	}
	return
}

// WrapPhase maps x onto the unit phase interval [0,1).
func WrapPhase(x float64) (y float64) {
	y = math.Mod(x, 1)
	if y < 0 {
		y += 1
	}
	return
}

func WrapPhases(x []float64) (y []float64) {
	y = make([]float64, len(x))
	for i, val := range x {
		y[i] = WrapPhase(val)
	}
	return
}

func VecMin(v []float64) (min float64) {
	min = v[0]
	for _, val := range v[1:] {
		if val < min {
			min = val
		}
	}
	return
}

func VecMax(v []float64) (max float64) {
	max = v[0]
	for _, val := range v[1:] {
		if val > max {
			max = val
		}
	}
	return
}
