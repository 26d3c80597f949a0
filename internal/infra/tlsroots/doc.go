// Package tlsroots builds the trust store the client uses to reach a
// backend signed by a private CA.
package tlsroots
