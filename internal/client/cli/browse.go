package cli

import (
	"context"
	"fmt"
)

// List prints the folders and files in the current directory. Records
// created offline and not yet synced are marked with an asterisk.
func (a *App) List(ctx context.Context) error {
	folders, err := a.folders.List(ctx, a.cwd)
	if err != nil {
		return err
	}
	files, err := a.files.List(ctx, a.cwd)
	if err != nil {
		return err
	}

	if len(folders) == 0 && len(files) == 0 {
		printlnFn("(empty)")
		return nil
	}
	for _, f := range folders {
		printlnFn(fmt.Sprintf("  %s%s  %s/", f.ID, tempMark(f.IsTemp), f.Name))
	}
	for _, f := range files {
		printlnFn(fmt.Sprintf("  %s%s  %s  %d bytes  %s", f.ID, tempMark(f.IsTemp), f.Name, f.Size, f.MimeType))
	}
	return nil
}

func tempMark(isTemp bool) string {
	if isTemp {
		return "*"
	}
	return ""
}

// ChangeDir enters a sub-folder by name, or goes back up with "..".
func (a *App) ChangeDir(ctx context.Context, name string) error {
	if name == ".." {
		if len(a.path) == 0 {
			return nil
		}
		a.path = a.path[:len(a.path)-1]
		if len(a.path) == 0 {
			a.cwd = nil
		} else {
			a.cwd = a.path[len(a.path)-1].id
		}
		return nil
	}

	folder, err := a.findFolderByName(ctx, name)
	if err != nil {
		return err
	}
	id := folder.ID
	a.cwd = &id
	a.path = append(a.path, breadcrumb{id: &id, name: folder.Name})
	return nil
}

// findFolderByName resolves a child of the current directory by name.
func (a *App) findFolderByName(ctx context.Context, name string) (*folderRef, error) {
	folders, err := a.folders.List(ctx, a.cwd)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if f.Name == name {
			return &folderRef{ID: f.ID, Name: f.Name}, nil
		}
	}
	return nil, fmt.Errorf("no folder named %q here", name)
}

type folderRef struct {
	ID   string
	Name string
}
