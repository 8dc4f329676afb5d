package common

const (
	// AuthHeaderName carries the device token on API requests.
	AuthHeaderName = "Authorization"

	// AuthSchemePrefix is the expected prefix of the auth header value.
	AuthSchemePrefix = "Bearer "
)
