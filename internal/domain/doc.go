// Package domain models the data shared by every layer of the seismic map.
//
// # Layers
//
// The map draws three layers, bottom to top:
//
//	continents       static polygons, loaded once at startup
//	tectonic-plates  static polygons, loaded once at startup
//	earthquakes      points from the seismic feed, replaced on every refresh
//
// Every layer holds a [FeatureCollection]. Features are addressed by a stable
// [Feature.Key] so that a refreshed collection can be reconciled against what is
// already on screen instead of being redrawn.
//
// # Seismic Feed Conventions
//
// Events come from an FDSN event service (USGS by default) as GeoJSON point
// features:
//
//	geometry.coordinates  [longitude, latitude, depth_km]
//	properties.code       network-local event code, used as the key
//	id                    network + code, used when code is missing
//	properties.mag        magnitude, may be null or slightly negative
//	properties.time       origin time in milliseconds since the Unix epoch
//
// Depth is dropped: the map is two-dimensional.
//
// # View Transform
//
// A [ViewTransform] is the pan/zoom affine map applied to projected screen
// coordinates: p' = k*p + t. All layers share one transform. Scale is bounded
// to [MinScale, MaxScale].
package domain
