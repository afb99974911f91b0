// Package mail renders booking confirmations and delivers them through an
// SMTP transport with a bounded retry policy.
//
// The pieces are independent: Render is a pure placeholder substitution,
// TemplateStore loads the raw bodies, Transport performs a single send and
// Engine drives the retry loop around a Transport.
package mail
