// Package analytics turns raw compost logs and stored forecasts into the
// derived metrics served by the dashboard: CO2 savings and equivalents,
// monthly aggregates, moisture projections and EC forecast interpretation.
//
// Everything here is pure and synchronous. Nothing logs, nothing touches the
// network, and rounding happens only when a result is returned.
package analytics
