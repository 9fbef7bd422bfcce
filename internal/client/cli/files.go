package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/driftbox/driftbox/internal/client/services"
)

// Put uploads a local file into the current directory.
func (a *App) Put(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	rec, mode, err := a.files.Upload(ctx, name, mimeType, a.cwd, data)
	if err != nil {
		return err
	}
	report(mode, fmt.Sprintf("uploaded %s (%s)", rec.Name, rec.ID))
	return nil
}

// Get downloads a file's bytes to a local path, defaulting to the file's
// own name in the working directory.
func (a *App) Get(ctx context.Context, id, dest string) error {
	rec, err := a.files.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no file with id %s", id)
	}

	data, err := a.files.Download(ctx, id)
	if err != nil {
		return err
	}
	if dest == "" {
		dest = rec.Name
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return err
	}
	printlnFn("saved", dest)
	return nil
}

// Rename renames a file or folder by identifier; files are tried first.
func (a *App) Rename(ctx context.Context, id, name string) error {
	if rec, err := a.files.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.files.Rename(ctx, id, name)
		if err != nil {
			return err
		}
		report(mode, "renamed file")
		return nil
	}

	if rec, err := a.folders.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.folders.Rename(ctx, id, name)
		if err != nil {
			return err
		}
		report(mode, "renamed folder")
		return nil
	}
	return fmt.Errorf("nothing with id %s", id)
}

// Move relocates a file or folder into a sibling folder by name, or to
// the root with "/".
func (a *App) Move(ctx context.Context, id, target string) error {
	var targetID *string
	if target != "/" {
		folder, err := a.findFolderByName(ctx, target)
		if err != nil {
			return err
		}
		targetID = &folder.ID
	}

	if rec, err := a.files.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.files.Move(ctx, id, targetID)
		if err != nil {
			return err
		}
		report(mode, "moved file")
		return nil
	}

	if rec, err := a.folders.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.folders.Move(ctx, id, targetID)
		if err != nil {
			return err
		}
		report(mode, "moved folder")
		return nil
	}
	return fmt.Errorf("nothing with id %s", id)
}

// Remove deletes a file or folder by identifier.
func (a *App) Remove(ctx context.Context, id string) error {
	if rec, err := a.files.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.files.Delete(ctx, id)
		if err != nil {
			return err
		}
		report(mode, "deleted file")
		return nil
	}

	if rec, err := a.folders.Get(ctx, id); err != nil {
		return err
	} else if rec != nil {
		mode, err := a.folders.Delete(ctx, id)
		if err != nil {
			return err
		}
		report(mode, "deleted folder")
		return nil
	}
	return fmt.Errorf("nothing with id %s", id)
}

func report(mode services.Mode, msg string) {
	if mode == services.ModeOffline {
		printlnFn(msg, "(queued, will sync when online)")
		return
	}
	printlnFn(msg)
}
