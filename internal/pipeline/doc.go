// Package pipeline drives one replicate from rate map to output files.
//
// The only contract to implement is oracle.Oracle; the ledger, publisher and
// observer hooks are optional. Steps run strictly in order with no retries,
// and a failure leaves whatever earlier steps wrote on disk.
package pipeline
