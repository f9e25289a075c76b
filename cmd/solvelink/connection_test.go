package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/stretchr/testify/assert"
)

func TestLogProgress(t *testing.T) {
	stdout := &bytes.Buffer{}
	log.SetOutput(stdout, nil)
	log.SetVerbosity(1)
	defer log.SetOutput(os.Stdout, nil)
	defer log.SetVerbosity(0)

	assert.True(t, logProgress(transport.Progress{Sent: 3 << 20, Received: 512}))
	assert.Contains(t, stdout.String(), "Transferred 3.0MiB up, 512B down")
}

func TestNewClient(t *testing.T) {
	config := solveengine.NewConfig()
	config.APIKey = "secret"

	client := NewClient(config, nil, logProgress)
	assert.NotNil(t, client)
	client.Close()
}
