// Package usgs fetches seismic events from an FDSN event web service such as
// the USGS earthquake catalog.
package usgs
