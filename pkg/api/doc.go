// Package api holds the request and response messages of the SettleUp RPC
// services. Messages are plain structs serialized as JSON; amounts are
// decimals encoded as strings ("12.50") so no precision is lost in transit.
//
// Handlers and clients live in package apiconnect.
package api
