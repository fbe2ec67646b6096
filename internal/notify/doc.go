// Package notify publishes job lifecycle events.
//
// When Kafka brokers and a topic are configured, each finished job is
// published as a JSON message keyed by job id so consumers see the events of
// one job in order. Without that configuration a no-op notifier is returned
// and callers need no special casing.
//
// Delivery is best effort. The pipeline logs publish failures and never lets
// them change a job's outcome.
package notify
