package models

type BodyKey struct{}

// RequestContext carries the per-request facts a handler needs beyond its
// parsed body: who is calling, from where, and with what credential.
type RequestContext struct {
	Claims     UserClaims
	ClientIP   string
	UserAgent  string
	Bearer     string
	PathParams map[string]string
}
