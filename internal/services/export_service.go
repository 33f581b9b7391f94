package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// ExportServiceName is the registry name of ExportService.
const ExportServiceName = "export"

// ExportFormat selects the export encoding.
type ExportFormat string

// Supported export formats.
const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// ConversationExport is the document written by ExportService.
type ConversationExport struct {
	Title string                 `json:"title" yaml:"title"`
	Turns mindtypes.Conversation `json:"turns" yaml:"turns"`
}

// ExportService writes conversations to files.
type ExportService struct {
	fs afero.Fs
}

// NewExportService creates an ExportService over fs (the OS filesystem when nil).
func NewExportService(fs afero.Fs) *ExportService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ExportService{fs: fs}
}

// Name returns the service name "export" for registration.
func (e *ExportService) Name() string {
	return ExportServiceName
}

// Initialize is a no-op.
func (e *ExportService) Initialize() error {
	return nil
}

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes a conversation in the given format.
func Encode(title string, conv mindtypes.Conversation, format ExportFormat) ([]byte, error) {
	doc := ConversationExport{Title: title, Turns: conv.Clone()}
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported export format '%s'", format)
	}
}

// Export writes conv to path, creating parent directories as needed.
func (e *ExportService) Export(path, title string, conv mindtypes.Conversation) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("export path cannot be empty")
	}
	format := FormatForPath(path)
	data, err := Encode(title, conv, format)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	logger.Debug("Conversation exported", "path", path, "format", string(format), "turns", len(conv))
	return nil
}
