// Package oracle is the boundary to the external coalescent and mutation
// engines. The pipeline only sees Oracle; concrete engines are reached through
// a Transport speaking one JSON request/response protocol (a worker process
// over stdin/stdout, or a remote worker over a websocket).
//
// Client validates requests before dispatch and responses before returning
// them, so every transport gets the same error behaviour.
package oracle
