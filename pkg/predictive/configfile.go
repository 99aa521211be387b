package predictive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	serviceInfoSection = "Service Info"
	keyEndpoint        = "endpoint"
	keyAPIKey          = "api key"
	keyVerifyCert      = "verify certificate"
)

// ServiceInfo holds the connection settings read from a config source.
type ServiceInfo struct {
	Endpoint          string
	APIKey            string
	VerifyCertificate bool
}

// serviceInfoFile mirrors the INI layout for YAML and JSON sources.
type serviceInfoFile struct {
	Info *serviceInfoSectionDoc `json:"Service Info" yaml:"Service Info"`
}

type serviceInfoSectionDoc struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api key" yaml:"api key"`
	Verify   *bool  `json:"verify certificate" yaml:"verify certificate"`
}

// LoadServiceInfo reads the "Service Info" section from the file at path.
// The format follows the extension: .yaml/.yml and .json are decoded as
// such, anything else is treated as INI.
func LoadServiceInfo(path string) (ServiceInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ServiceInfo{}, &ConfigError{Path: path, Err: errors.New("config file path is empty")}
	}

	file, err := os.Open(path)
	if err != nil {
		return ServiceInfo{}, &ConfigError{Path: path, Err: fmt.Errorf("error while reading the config file: %w", err)}
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return ServiceInfo{}, &ConfigError{Path: path, Err: fmt.Errorf("error while reading the config file: %w", err)}
	}

	info, err := parseServiceInfo(raw, filepath.Ext(path))
	if err != nil {
		return ServiceInfo{}, &ConfigError{Path: path, Err: err}
	}
	return info, nil
}

func parseServiceInfo(data []byte, ext string) (ServiceInfo, error) {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		return decodeServiceInfoDoc("yaml", data, yaml.Unmarshal)
	case ".json":
		return decodeServiceInfoDoc("json", data, json.Unmarshal)
	default:
		return decodeServiceInfoINI(data)
	}
}

func decodeServiceInfoINI(data []byte) (ServiceInfo, error) {
	// values may contain '#' or ';'; only whole-line comments are comments
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return ServiceInfo{}, fmt.Errorf("invalid config file format: %w", err)
	}
	sec, err := f.GetSection(serviceInfoSection)
	if err != nil {
		return ServiceInfo{}, fmt.Errorf("section %q not found", serviceInfoSection)
	}

	info := ServiceInfo{
		Endpoint:          strings.TrimSpace(sec.Key(keyEndpoint).String()),
		APIKey:            strings.TrimSpace(sec.Key(keyAPIKey).String()),
		VerifyCertificate: true,
	}
	if sec.HasKey(keyVerifyCert) {
		v, err := sec.Key(keyVerifyCert).Bool()
		if err != nil {
			return ServiceInfo{}, fmt.Errorf("%q must be a boolean: %w", keyVerifyCert, err)
		}
		info.VerifyCertificate = v
	}
	return info, validateServiceInfo(info)
}

func decodeServiceInfoDoc(name string, data []byte, fn func([]byte, any) error) (ServiceInfo, error) {
	var doc serviceInfoFile
	if err := fn(data, &doc); err != nil {
		return ServiceInfo{}, fmt.Errorf("invalid %s config file: %w", name, err)
	}
	if doc.Info == nil {
		return ServiceInfo{}, fmt.Errorf("section %q not found", serviceInfoSection)
	}

	info := ServiceInfo{
		Endpoint:          strings.TrimSpace(doc.Info.Endpoint),
		APIKey:            strings.TrimSpace(doc.Info.APIKey),
		VerifyCertificate: true,
	}
	if doc.Info.Verify != nil {
		info.VerifyCertificate = *doc.Info.Verify
	}
	return info, validateServiceInfo(info)
}

func validateServiceInfo(info ServiceInfo) error {
	if info.Endpoint == "" {
		return fmt.Errorf("%q is required in section %q", keyEndpoint, serviceInfoSection)
	}
	if info.APIKey == "" {
		return fmt.Errorf("%q is required in section %q", keyAPIKey, serviceInfoSection)
	}
	return nil
}
