package model

// Cookie is a simplified view of a browser cookie, reduced to the fields
// the analysis needs. Value is deliberately omitted: cookie values may
// contain session identifiers and have no analytical use here.
type Cookie struct {
	// Name is the cookie name.
	Name string `json:"name"`

	// Domain is the cookie's domain attribute, possibly with a leading dot.
	Domain string `json:"domain"`

	// Path is the cookie's path attribute.
	Path string `json:"path,omitempty"`

	// Expires is the expiry as a Unix timestamp; zero or negative means
	// a session cookie.
	Expires float64 `json:"expires,omitempty"`

	// HTTPOnly reports whether the cookie is inaccessible to scripts.
	HTTPOnly bool `json:"http_only,omitempty"`

	// Secure reports whether the cookie is restricted to HTTPS.
	Secure bool `json:"secure,omitempty"`
}
