// Package domain models NASA FIRMS active-fire detections.
//
// # Data Source
//
// Detections originate from the Fire Information for Resource Management System
// (FIRMS) area API, https://firms.modaps.eosdis.nasa.gov/api/area/. The service
// either polls the CSV endpoint directly or consumes rows that an upstream
// collector already published to Kafka. In both cases each CSV row travels as a
// flat JSON object of column name to string value (see [RawFIRMSRecord]).
//
// # FIRMS Data Conventions
//
// Coordinates:
//
//	"latitude" and "longitude" columns, decimal degrees, WGS-84.
//
// Brightness:
//
//	VIIRS products report I-4 and I-5 channel brightness temperatures in Kelvin
//	as "bright_ti4" and "bright_ti5". The I-4 channel is preferred; the I-5
//	channel is the fallback. A row with neither column is a data-shape error
//	([ErrMissingBrightness]), never a zero reading.
//
// Acquisition time:
//
//	"acq_date" is YYYY-MM-DD and "acq_time" is HHMM in UTC. Some feeds drop
//	leading zeros ("5" = 00:05, "930" = 09:30); values are left-padded to four digits.
//
// Confidence:
//
//	VIIRS uses a letter code ("l", "n", "h"), normalised to "low", "nominal",
//	"high". MODIS uses a 0–100 percentage, which is kept as-is.
//
// # Regions
//
// Every detection is bucketed into a named lat/lon rectangle by
// [RegionClassifier]. The rectangle table is ordered and the order is the
// tie-break for overlapping boxes: the first match wins. Points inside no box
// are assigned [RegionOther].
//
// # Viewport
//
// [EstimateViewport] derives a map camera from the spread of a point set using
// four coarse zoom bands, so small filter changes do not make the map jitter.
//
// # ID Generation
//
// Detection IDs are deterministic SHA-256 hashes of lat|lon|acquired|satellite|
// instrument, so replaying the same FIRMS snapshot upserts instead of duplicating.
// See [generateID].
package domain
