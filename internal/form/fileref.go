package form

import (
	"errors"
	"path"
	"strings"
)

const (
	// FileKeyPrefix roots every stored upload. Keys are
	// uploads/{form_id}/{name}.
	FileKeyPrefix = "uploads/"
	// FileURLPrefix is the public API path that serves stored files.
	FileURLPrefix = "/api/v1/files/"
)

var ErrForeignFile = errors.New("file was not uploaded for this form")

// FileKey is the storage key for name under formID.
func FileKey(formID, name string) string {
	return FileKeyPrefix + formID + "/" + name
}

// FileURL is the public path that serves key.
func FileURL(key string) string { return FileURLPrefix + key }

// ValidFileKey reports whether key is a clean key directly under
// uploads/{formID}/.
func ValidFileKey(formID, key string) bool {
	if formID == "" || strings.Contains(formID, "/") || path.Clean(key) != key {
		return false
	}
	name, ok := strings.CutPrefix(key, FileKeyPrefix+formID+"/")
	return ok && name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// bindFileRef checks that a client supplied ref points at an upload of
// formID and rebuilds its URL from the key. The client's URL is dropped.
func bindFileRef(formID string, ref FileRef) (FileRef, error) {
	if !ValidFileKey(formID, ref.FileID) {
		return FileRef{}, ErrForeignFile
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(ref.FileName), `\`, "/"))
	if name == "." || name == "/" {
		name = path.Base(ref.FileID)
	}
	return FileRef{FileID: ref.FileID, FileName: name, FileURL: FileURL(ref.FileID)}, nil
}
