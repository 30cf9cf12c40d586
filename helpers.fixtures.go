package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ResetDatabase replaces the whole content of the file at path with the json
// encoding of structure. The data is first written into a temporary file of
// the same folder which is then renamed, so readers see either the previous
// or the new document. Any failure is reported as a *PersistenceError.
func ResetDatabase(path string, structure interface{}) error {
	data, err := json.Marshal(structure)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return &PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Op: "sync", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &PersistenceError{Op: "close", Path: path, Err: err}
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return &PersistenceError{Op: "chmod", Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
