// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Use cases publish through Publisher and consume through Consumer; the broker
// (Kafka, NATS, NSQ or the in-process Memory broker) is chosen at start-up by
// NewFromDriver. Headers travel with every message on every driver, including
// NSQ, which has no native headers and carries them in an envelope.
package messaging
