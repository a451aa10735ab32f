// Package sample builds script.Context values for circular samples mapped on
// a hexagonal grid.
//
// Loci spiral out from the sample centre ring by ring in cube coordinates, so
// a map can be cut short at any point and still cover the middle of the
// sample. Goniometer angles follow the GADDS geometry: theta1 is the source
// angle, theta2 the detector angle, and each frame covers one frame step of
// two-theta.
package sample
