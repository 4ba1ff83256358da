// Package domain models weather readings and the workforce-safety artifacts
// derived from them.
//
// # Readings
//
// A [Reading] is a single point-in-time observation (or a forecast point) in
// canonical units:
//
//	Temperature    degrees Celsius
//	Humidity       percent
//	Precipitation  millimetres
//	WindSpeed      kilometres per hour
//	CloudCover     percent
//
// Readings are produced by the weather adapters and never mutated afterwards.
// Values outside a physically plausible range (humidity above 100, negative
// wind) are carried as-is; sensor sanity is the upstream collector's concern.
//
// CachedAt is set only on readings served by the primary weather cache. The
// external fallback provider never sets it, so freshness checks treat those
// readings as not yet cached.
//
// # Hazards and risk levels
//
// Three hazards are evaluated: temperature, precipitation, and wind. Each maps
// to one condition key used by the PPE and training tables:
//
//	temperature    high_temperature
//	precipitation  heavy_precipitation
//	wind           high_wind
//
// Risk levels are ordered LOW < MEDIUM < HIGH. A composite level is the
// maximum over all hazards; HIGH dominates regardless of how many hazards are
// HIGH.
//
// # Lifecycles
//
// Schedule adjustments are emitted as PROPOSED and move forward only:
// PROPOSED -> APPROVED -> ACTIVE -> COMPLETED. Risk assessments start PENDING
// and are decided once, to APPROVED or REJECTED. Both transitions belong to
// external HR actors; the engine never performs them itself.
package domain
