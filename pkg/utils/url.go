package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Parses a listen address of the form tcp://<host>:<port> and returns
// <host>:<port>. The port defaults to 8080.
func ParseHttpUrl(urlstr string) (string, error) {
	uri, err := url.Parse(urlstr)
	if err != nil {
		return "", err
	}

	port := uri.Port()
	if port == "" {
		uri.Host += ":8080"
	}

	var httpUri string
	switch uri.Scheme {
	case "tcp":
		httpUri = uri.Host

	default:
		return "", errors.New("Unsupported protocol: " + uri.Scheme)
	}

	return httpUri, nil
}

// Parses the base URL of a remote service. The scheme must be http or https
// and a trailing slash is removed from the path.
func ParseEndpoint(urlstr string) (*url.URL, error) {
	uri, err := url.Parse(urlstr)
	if err != nil {
		return nil, err
	}

	switch uri.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported endpoint protocol %q", ErrBadRequest, uri.Scheme)
	}

	if uri.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q has no host", ErrBadRequest, urlstr)
	}

	uri.Path = strings.TrimSuffix(uri.Path, "/")
	uri.RawQuery = ""
	uri.Fragment = ""
	return uri, nil
}
