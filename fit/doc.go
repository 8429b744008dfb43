// Package fit fits peak models to images and spectra.
//
// Image and ImageProfile2D fit a single 2D peak, LaguerreGauss a multimode
// beam, Spectrum a single 1D line and MultiPeak a sum of 1D lines. All
// fitters minimize (data - model)/sigma with the bounded Levenberg-Marquardt
// solver in package mpfit and seed missing start values from package
// moments.
//
// Masked and NaN samples are left out of the residual vector, so their
// values never influence a fit.
package fit
