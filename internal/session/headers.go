package session

import "net/http"

// Default values for the convenience header setters.
const (
	// DefaultAccept is the default value for the Accept header.
	DefaultAccept = "*/*"
	// DefaultAcceptEncoding is the default value for the Accept-Encoding header.
	DefaultAcceptEncoding = "gzip, deflate, br"
	// DefaultAcceptLanguage is the default value for the Accept-Language header.
	DefaultAcceptLanguage = "en-US,en;q=0.5"
	// DefaultXRequestedWith is the default value for the X-Requested-With header.
	DefaultXRequestedWith = "XMLHttpRequest"

	// contentTypeForm is the content type for form-encoded payloads.
	contentTypeForm = "application/x-www-form-urlencoded"
	// contentTypeJSON is the content type for JSON payloads.
	contentTypeJSON = "application/json"
	// charsetUTF8Suffix is appended to content types when a UTF-8 charset is requested.
	charsetUTF8Suffix = "; charset=UTF-8"
)

// SetHeader upserts a session default header. Keys are case-insensitive.
func (c *ClientImpl) SetHeader(key, value string) {
	c.headers[http.CanonicalHeaderKey(key)] = value
}

// DeleteHeader removes a session default header if present.
func (c *ClientImpl) DeleteHeader(key string) {
	delete(c.headers, http.CanonicalHeaderKey(key))
}

// GetHeader returns the session default header value,
// or an empty string when the header is absent. It never fails.
func (c *ClientImpl) GetHeader(key string) string {
	return c.headers[http.CanonicalHeaderKey(key)]
}

// SetAccept sets the Accept header. An empty value applies the default.
func (c *ClientImpl) SetAccept(value string) {
	if value == "" {
		value = DefaultAccept
	}

	c.SetHeader("Accept", value)
}

// SetAcceptEncoding sets the Accept-Encoding header. An empty value applies the default.
func (c *ClientImpl) SetAcceptEncoding(value string) {
	if value == "" {
		value = DefaultAcceptEncoding
	}

	c.SetHeader("Accept-Encoding", value)
}

// SetAcceptLanguage sets the Accept-Language header. An empty value applies the default.
func (c *ClientImpl) SetAcceptLanguage(value string) {
	if value == "" {
		value = DefaultAcceptLanguage
	}

	c.SetHeader("Accept-Language", value)
}

// SetOrigin sets the Origin header. An empty value removes it.
func (c *ClientImpl) SetOrigin(value string) {
	if value == "" {
		c.DeleteHeader("Origin")
		return
	}

	c.SetHeader("Origin", value)
}

// SetReferer sets the Referer header. An empty value removes it.
func (c *ClientImpl) SetReferer(value string) {
	if value == "" {
		c.DeleteHeader("Referer")
		return
	}

	c.SetHeader("Referer", value)
}

// SetContentType sets the Content-Type header. An empty value removes it.
func (c *ClientImpl) SetContentType(value string) {
	if value == "" {
		c.DeleteHeader("Content-Type")
		return
	}

	c.SetHeader("Content-Type", value)
}

// SetXRequestedWith sets the X-Requested-With header. An empty value applies the default.
func (c *ClientImpl) SetXRequestedWith(value string) {
	if value == "" {
		value = DefaultXRequestedWith
	}

	c.SetHeader("X-Requested-With", value)
}

// UseFormContentType sets the Content-Type preset for form-encoded payloads,
// optionally appending the UTF-8 charset suffix.
func (c *ClientImpl) UseFormContentType(withCharset bool) {
	value := contentTypeForm
	if withCharset {
		value += charsetUTF8Suffix
	}

	c.SetHeader("Content-Type", value)
}

// UseJSONContentType sets the Content-Type preset for JSON payloads,
// optionally appending the UTF-8 charset suffix.
func (c *ClientImpl) UseJSONContentType(withCharset bool) {
	value := contentTypeJSON
	if withCharset {
		value += charsetUTF8Suffix
	}

	c.SetHeader("Content-Type", value)
}

// prepareHeaders inspects the outgoing call's options and auto-sets the
// content-type header: the JSON preset when a JSON payload is present, the
// form preset when only a generic payload is present. Explicit header
// overrides from the options apply last and take precedence; an empty
// override value removes the header.
func (c *ClientImpl) prepareHeaders(opts *RequestOptions) {
	if opts == nil {
		return
	}

	if opts.JSONBody != nil {
		c.UseJSONContentType(true)
	} else if opts.FormBody != nil {
		c.UseFormContentType(true)
	}

	for key, value := range opts.Headers {
		if value == "" {
			c.DeleteHeader(key)
			continue
		}

		c.SetHeader(key, value)
	}
}
