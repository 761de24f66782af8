package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func TestClustersRunsWithoutGemini(t *testing.T) {
	var buf bytes.Buffer
	root := &cli.Command{
		Name:     "dormouse",
		Writer:   &buf,
		Commands: []*cli.Command{clustersCommand()},
	}

	// No gemini flags at all: clustering only reads stored embeddings.
	err := root.Run(context.Background(), []string{"dormouse", "clusters", "--local"})
	gt.NoError(t, err)
	gt.S(t, buf.String()).Contains("No clusters found")
}
