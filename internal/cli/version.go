package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/cruxgen/internal"
)

// Represents the 'cruxgen version' command.
type VersionCmd struct{}

// Prints the version string to stdout.
func (c *VersionCmd) Run(ctx context.Context) error {
	_, err := fmt.Fprintln(stdout, internal.VersionString())
	return err
}
