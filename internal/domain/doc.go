// Package domain implements the flood-risk engine for the Recife rain gauge
// network: hourly rainfall intensity, tide join, risk scoring and the merge
// into the historical dataset.
//
// # Data Sources
//
// Rainfall events come from the APAC/Cemaden gauges, fetched upstream into one
// table per calendar day ("chuva_recife_2025-06-01.csv"). Each row is a single
// gauge reading: station name, local timestamp, millimetres measured since the
// previous reading. Readings are irregular and may arrive several per minute.
//
// Tide heights come from a yearly hourly table computed from harmonic
// constants for the port of Recife. Heights are in metres; the table is shared
// by all stations.
//
// # Time
//
// All day and hour boundaries are evaluated in America/Recife (UTC-3, no DST).
// Once a value is keyed by [HourKey] it carries no zone.
//
// # Rainfall intensity (VP)
//
// For each event two trailing sums are computed over (t-w, t]:
//
//	chuva_10min  w = 10 minutes
//	chuva_2h     w = 2 hours
//
// Each hour keeps the sums as of its last event, and
//
//	VP = 6 × chuva_10min + chuva_2h
//
// The factor 6 scales the 10 minute sum to an hourly rate, so short bursts
// weigh more than sustained moderate rain. An hour with no events has no VP;
// it is not zero.
//
// # Risk
//
//	risk = round(round(VP, 2) × round(AM, 2), 2)
//
// where AM is the tide height for the same hour (0 in the product when
// missing). Bands are right-open:
//
//	< 30      Baixo
//	< 50      Moderado
//	< 100     Moderado Alto
//	≥ 100     Alto
//
// # History
//
// The historical dataset holds at most one record per (date, hour, station).
// [Merge] lets freshly computed records replace stale ones, so reprocessing a
// day is idempotent.
package domain
