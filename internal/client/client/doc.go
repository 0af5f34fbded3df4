// Package client contains the transport side of postkeeper: the contract
// the upload engine and the post service use to talk to the backend's media
// API, and two implementations of it.
//
// # Overview
//
//  1. MediaClient: batch negotiation of upload targets, batch confirmation,
//     post creation and a health probe.
//  2. HTTPClient: REST/JSON implementation. It attaches a bearer token and
//     refuses to send a JWT whose exp claim has already passed.
//  3. GRPCClient: gRPC implementation whose messages are google.protobuf.Struct
//     values, with an interceptor that injects the access token and retries
//     once after a refresh when the server reports an expired token.
//
// # Error Handling
//
// Both implementations map transport failures onto the sentinel errors
// ErrUnavailable and ErrUnauthorized; callers match them with errors.Is.
//
// Byte transfer to the negotiated URLs is not part of this package; see
// internal/netx.
package client
