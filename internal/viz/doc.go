// Package viz renders power flow runs for the terminal and as images.
//
//   - [RenderSummary]: status panel for one run
//   - [RenderBuses]: bus voltage table, with out-of-band magnitudes flagged
//   - [ErrorPlot] and [VoltagePlot]: asciigraph charts
//   - [SavePNG]: convergence chart written with gonum/plot
package viz
