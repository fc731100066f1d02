package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// DefaultHeader carries the tenant group code.
const DefaultHeader = "X-Tenant-Group-Code"

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Extractor pulls the tenant identifier out of a request.
// An empty identifier with a nil error means the request carries none.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

// ExtractorFunc is an adapter to allow the use of ordinary functions as Extractors.
type ExtractorFunc func(r *http.Request) (string, error)

// Extract calls the function.
func (f ExtractorFunc) Extract(r *http.Request) (string, error) {
	return f(r)
}

// HeaderExtractor reads the identifier from a request header.
type HeaderExtractor struct {
	HeaderName string
}

// NewHeaderExtractor creates a header extractor. An empty name means DefaultHeader.
func NewHeaderExtractor(headerName string) *HeaderExtractor {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &HeaderExtractor{HeaderName: headerName}
}

// Extract reads the configured header.
func (e *HeaderExtractor) Extract(r *http.Request) (string, error) {
	return validIdentifier(strings.TrimSpace(r.Header.Get(e.HeaderName)))
}

// SubdomainExtractor reads the identifier from the first host label,
// e.g. "acme" from "acme.app.com". A leading "www" is skipped.
type SubdomainExtractor struct {
	// Suffix is stripped from the host before the label is taken (e.g. ".saas.com").
	Suffix string
}

// NewSubdomainExtractor creates a subdomain extractor.
func NewSubdomainExtractor(suffix string) *SubdomainExtractor {
	return &SubdomainExtractor{Suffix: suffix}
}

// Extract returns the subdomain, or "" for a bare domain.
func (e *SubdomainExtractor) Extract(r *http.Request) (string, error) {
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	// subdomain.domain.tld is the shortest host that carries a tenant.
	if strings.Count(host, ".") < 2 {
		return "", nil
	}

	if e.Suffix != "" && strings.HasSuffix(host, e.Suffix) && len(host) > len(e.Suffix) {
		host = strings.TrimSuffix(host, e.Suffix)
	}

	parts := strings.Split(host, ".")
	label := parts[0]
	if label == "www" {
		if len(parts) < 2 {
			return "", nil
		}
		label = parts[1]
	}
	return validIdentifier(label)
}

// PathExtractor reads the identifier from a URL path segment.
type PathExtractor struct {
	// Position is 1-based, e.g. 2 for /groups/{code}/...
	Position int
}

// NewPathExtractor creates a path extractor.
func NewPathExtractor(position int) *PathExtractor {
	return &PathExtractor{Position: position}
}

// Extract returns the segment at Position, or "" if the path is shorter.
func (e *PathExtractor) Extract(r *http.Request) (string, error) {
	if e.Position < 1 {
		return "", errors.New("invalid path position")
	}

	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		return "", nil
	}

	parts := strings.Split(path, "/")
	if e.Position > len(parts) {
		return "", nil
	}
	return validIdentifier(parts[e.Position-1])
}

// CompositeExtractor tries extractors in order and returns the first
// non-empty identifier.
type CompositeExtractor struct {
	Extractors []Extractor
}

// NewCompositeExtractor creates a composite extractor.
func NewCompositeExtractor(extractors ...Extractor) *CompositeExtractor {
	return &CompositeExtractor{Extractors: extractors}
}

// Extract returns the first identifier found. Errors are reported only when
// no extractor produced one.
func (c *CompositeExtractor) Extract(r *http.Request) (string, error) {
	var errs []error
	for _, ex := range c.Extractors {
		id, err := ex.Extract(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			return id, nil
		}
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("composite extractor: %w", errors.Join(errs...))
	}
	return "", nil
}

func validIdentifier(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	if !identifierPattern.MatchString(id) {
		return "", errors.Join(ErrInvalidIdentifier, fmt.Errorf("%q", id))
	}
	return id, nil
}
