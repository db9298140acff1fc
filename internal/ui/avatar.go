package ui

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/five82/shutter/internal/transport"
)

// readAvatar loads an image file for upload. The content type comes from the
// extension, falling back to sniffing the data.
func readAvatar(path string) (transport.AvatarUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transport.AvatarUpload{}, fmt.Errorf("read avatar: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return transport.AvatarUpload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
