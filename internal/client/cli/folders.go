package cli

import (
	"context"
	"fmt"
)

// Mkdir creates a folder inside the current directory.
func (a *App) Mkdir(ctx context.Context, name string) error {
	rec, mode, err := a.folders.Create(ctx, name, a.cwd)
	if err != nil {
		return err
	}
	report(mode, fmt.Sprintf("created folder %s (%s)", rec.Name, rec.ID))
	return nil
}
