package types

import (
	"fmt"
	"strings"
)

// ProductToken is a single "name/version" pair within a product tokens line.
type ProductToken struct {
	Name    string
	Version string
}

func (t ProductToken) String() string { return t.Name + "/" + t.Version }

// ProductTokens models the SERVER/USER-AGENT header value:
// "<OS>/<OS-version> UPnP/<1.0|1.1> <Product>/<Product-version>".
type ProductTokens struct {
	OS      ProductToken
	UPnP    ProductToken
	Product ProductToken
}

func (p ProductTokens) String() string {
	return p.OS.String() + " " + p.UPnP.String() + " " + p.Product.String()
}

// NewProductTokens builds the standard three-token line for this stack.
func NewProductTokens(osName, osVersion, productName, productVersion string, upnpVersion string) ProductTokens {
	return ProductTokens{
		OS:      ProductToken{Name: osName, Version: osVersion},
		UPnP:    ProductToken{Name: "UPnP", Version: upnpVersion},
		Product: ProductToken{Name: productName, Version: productVersion},
	}
}

// ParseProductTokens splits a SERVER/USER-AGENT line into its name/version
// tokens. strict rejects any token that is all whitespace or lacks a
// version; when strict is false it mirrors the source library's historical
// parser, which locates the '/' with Index(tok, "/") and then takes
// tok.right(index) for the version instead of mid(index+1) — off by one,
// keeping the separator itself as the first character of the version. That
// behavior is preserved here only when lenient, for compatibility with
// peers that were built against it; prefer strict for new deployments.
func ParseProductTokens(s string, strict bool) (ProductTokens, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return ProductTokens{}, fmt.Errorf("types: product tokens %q: expected 3 tokens, got %d", s, len(fields))
	}
	toks := make([]ProductToken, 3)
	for i, f := range fields {
		tok, err := parseProductToken(f, strict)
		if err != nil {
			return ProductTokens{}, fmt.Errorf("types: product tokens %q: %w", s, err)
		}
		toks[i] = tok
	}
	return ProductTokens{OS: toks[0], UPnP: toks[1], Product: toks[2]}, nil
}

func parseProductToken(tok string, strict bool) (ProductToken, error) {
	if strings.TrimSpace(tok) == "" {
		return ProductToken{}, fmt.Errorf("empty token")
	}
	idx := strings.Index(tok, "/")
	if idx < 0 {
		return ProductToken{}, fmt.Errorf("token %q has no version", tok)
	}
	name := tok[:idx]
	var version string
	if strict {
		version = tok[idx+1:]
	} else {
		version = tok[idx:]
	}
	if name == "" || version == "" {
		return ProductToken{}, fmt.Errorf("token %q is malformed", tok)
	}
	return ProductToken{Name: name, Version: version}, nil
}
