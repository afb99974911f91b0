// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

// Message is a fully resolved confirmation ready for the transport.
// It is passed by value and never modified once built.
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string
}
