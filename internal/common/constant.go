package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme expected in AuthorizationHeaderName.
const BearerScheme = "Bearer"

// ResetTokenBytes is the amount of random bytes behind a password reset token
// (256 bits of entropy).
const ResetTokenBytes = 32
