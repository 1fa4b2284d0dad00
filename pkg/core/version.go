package core

// Version is the client library version, sent in the User-Agent header and
// the live gateway handshake.
const Version = "0.3.0"

// DefaultUserAgent is the User-Agent header sent when Config.UserAgent is
// empty.
const DefaultUserAgent = "tickvault-go/" + Version
