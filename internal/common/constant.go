package common

// AuthorizationHeaderName carries the admin session token as
// "Bearer <token>" on outbound admin requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// DateLayout is the calendar date format of Entry.Date.
const DateLayout = "2006-01-02"
