//go:build linux

package services

// clipboardAvailable indicates if clipboard functionality is available on this platform
const clipboardAvailable = false

// initClipboard returns an error indicating clipboard is not available
func initClipboard() error {
	return ErrClipboardUnavailable
}

// writeToClipboard returns an error indicating clipboard is not available
func writeToClipboard(_ string) error {
	return ErrClipboardUnavailable
}
