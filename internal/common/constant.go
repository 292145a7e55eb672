// Package common contains shared constants and sentinel errors used across
// taskboard components.
package common

// SessionCookieName is the name of the site-wide cookie carrying the opaque
// session token.
const SessionCookieName = "taskboard_session"

// SessionTokenBytes is the amount of random data behind a session token.
// Tokens are hex encoded, so their string length is twice this value.
const SessionTokenBytes = 32
