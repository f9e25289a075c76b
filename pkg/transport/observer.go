package transport

import "time"

type Observer interface {
	// Called when a request has completed. The code is 0 if no response
	// was received.
	RequestCompleted(method, route string, code int, duration time.Duration, err error)
}
