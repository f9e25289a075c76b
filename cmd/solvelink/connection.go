package main

import (
	"context"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
)

// Returns an identifier of this host that does not leak the machine id.
func clientID() string {
	id, err := machineid.ProtectedID("solvelink")
	if err != nil {
		log.Debug("No machine id available:", err)
		return ""
	}
	return id
}

// Logs the transfer of large requests and responses.
func logProgress(p transport.Progress) bool {
	log.Debugf("Transferred %s up, %s down", utils.HumanByteSize(p.Sent), utils.HumanByteSize(p.Received))
	return true
}

// Returns a client for the configured service. The observer and the
// progress callback may be nil.
func NewClient(config *solveengine.Config, observer transport.Observer, progress transport.ProgressFunc) *transport.Client {
	opts := config.TransportOptions()
	opts.UserAgent = "solvelink/" + Version
	opts.ClientID = clientID()
	opts.Observer = observer
	opts.Progress = progress

	client, err := transport.Configure(opts)
	if err != nil {
		log.Fatal(err)
	}

	return client
}

func DefaultDeadlineContext() (context.Context, func()) {
	return context.WithDeadline(context.Background(), time.Now().Add(time.Second*30))
}
