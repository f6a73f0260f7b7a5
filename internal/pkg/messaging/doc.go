// Package messaging publishes and consumes security events over a broker.
//
// Business code depends on Publisher and Consumer only. NATS, Kafka, NSQ
// and Google Pub/Sub are the production drivers; the memory driver keeps
// everything in process and is used for local runs and tests.
package messaging
