// Package powerflow solves the ECF power flow by Newton-Raphson.
//
// Linear elements are stamped once. Every iteration re-stamps the nonlinear
// elements around the current estimate, adds the two systems, solves for a
// candidate and compares it with the estimate:
//
//	err = max_i |v_sol[i] - v[i]|
//
// The run stops when err <= Tolerance (converged, v = v_sol) or when
// MaxIters solves have been made (not converged, v is the last accepted
// estimate and the result is provisional). Domain, index and linear-system
// failures abort the run with an error.
package powerflow
