// Package grid models power network elements as equivalent-circuit stamps.
//
// Every element converts its engineering-unit parameters to per-unit on the
// [Base] it is constructed with and stamps a real-valued circuit into a
// sparse (Y, J) pair. Linear elements ([Branch], [Transformer], [Shunt],
// [Slack]) stamp fixed values; nonlinear elements ([Load], [Generator])
// linearize around the voltage estimate they are given and also implement
// [Nonlinear.Residual].
//
// # Nodes
//
// Each bus owns two unknowns (Vr, Vi). A generator bus adds one reactive
// power unknown and a slack adds two current unknowns (Ir, Ii). Indices are
// allocated once by [Network.Bind]; elements only hold the indices.
package grid
