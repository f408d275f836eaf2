/*
Package observability exports engine activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so they compose with logging hooks
through LifecycleHooks.Merge. Each Metrics owns its own registry; Handler
serves it in the Prometheus text format.
*/
package observability
