// Package kafka exposes a Kafka topic as an asynchronous iterator.
//
// Each readiness check fetches one record through a segmentio/kafka-go
// Reader. With a consumer group, a record's offset is committed when the
// following record is requested, so a record counts as processed once the
// consumer has moved past it. The last record of a session is therefore
// redelivered after a restart.
//
// Topics are unbounded; set IdleTimeout to end the sequence once no record
// has arrived for that long.
//
//	it := kafka.Open(ctx, cfg, log)
//	defer it.Cancel()
//	for msg, err := range async.All(ctx, it) { ... }
package kafka
