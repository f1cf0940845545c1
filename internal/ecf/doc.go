// Package ecf provides the core primitives shared by the power flow packages.
//
// The Equivalent Circuit Formulation splits every complex bus voltage into a
// real and an imaginary unknown and models each grid element as a real-valued
// circuit stamp:
//
//   - [Vector]: dense unknown vector (bus Vr/Vi, generator Q, slack Ir/Ii)
//   - [StampError]: names the element whose stamp failed
//   - [SolveError]: names the Newton-Raphson iteration that failed
//
// # Errors
//
// Callers classify failures with errors.Is against the sentinels declared in
// this package ([ErrDomain], [ErrLinearSystem], [ErrIndex], ...). Every
// wrapper type implements Unwrap, so the sentinels survive any nesting.
package ecf
