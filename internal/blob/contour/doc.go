// Package contour owns the 2D geometry of a detected blob.
//
// Responsibilities: polygon area moments, pixel centroid, and Hu-moment
// shape comparison between two contours.
// Key types: Contour, Moments.
//
// Dependency rule: contour depends on nothing else under internal/blob.
package contour
