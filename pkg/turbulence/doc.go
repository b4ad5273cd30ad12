// Package turbulence synthesizes a high-resolution wind-speed series around a
// mean speed:
//
//	v(t) = v̄ + v_wave(t) + v_turb(t)
//
// The wave term is a slow sinusoid A·sin(2πt/T_w + φ) with one uniformly drawn
// phase φ per run. The turbulence term is Gaussian white noise shaped by a
// rational approximation of the von Kármán spectrum
//
//	H(s) = K_F·(m1·T_F·s + 1) / ((T_F·s + 1)·(m2·T_F·s + 1))
//
// with m1 = 0.4, m2 = 0.25, T_F = L/v̄ and L = 6.5·h. The filter is
// discretized with the bilinear transform and run as a two-state recursion
// whose state is an explicit FilterState value.
//
// The gain K_F is fixed before simulation so that the stationary standard
// deviation of v_turb equals K_p·v̄: the unit-gain output variance is solved
// from the discrete Lyapunov equation P = A·P·Aᵀ + B·Bᵀ. The state is drawn
// from the same stationary covariance, so a series has no start-up transient.
//
// A Stream is resumable: it carries the RNG, phase and filter state, and every
// Next call advances exactly one sample. Given the same seed two streams emit
// identical samples.
package turbulence
