package radvd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"
)

const (
	DefaultMaxRtrAdvInterval = 15
	DefaultValidLifetime     = 3600
	DefaultPreferredLifetime = 3600
)

const configTemplate = `interface {{.Interface}} {
    AdvSendAdvert on;
    MaxRtrAdvInterval {{.MaxRtrAdvInterval}};
{{range .Prefixes}}    prefix {{.}}
    {
        AdvOnLink on;
        AdvAutonomous on;
        AdvValidLifetime {{$.ValidLifetime}};
        AdvPreferredLifetime {{$.PreferredLifetime}};
        DeprecatePrefix on;
    };

{{end}}};
`

var configTmpl = template.Must(template.New("radvd.conf").Parse(configTemplate))

type ConfigData struct {
	Interface         string
	MaxRtrAdvInterval int
	ValidLifetime     int
	PreferredLifetime int
	Prefixes          []Prefix
}

func NewConfigData(ifname string, prefixes []Prefix) *ConfigData {
	return &ConfigData{
		Interface:         ifname,
		MaxRtrAdvInterval: DefaultMaxRtrAdvInterval,
		ValidLifetime:     DefaultValidLifetime,
		PreferredLifetime: DefaultPreferredLifetime,
		Prefixes:          prefixes,
	}
}

// GenerateConfig renders the radvd configuration text.
func GenerateConfig(data *ConfigData) (string, error) {
	var buf bytes.Buffer
	if err := configTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute radvd template: %w", err)
	}
	return buf.String(), nil
}

// WriteConfig renders data and replaces path in one step: the text goes to a
// temporary file in the same directory which is then renamed over path.
func WriteConfig(fs afero.Fs, path string, data *ConfigData) error {
	content, err := GenerateConfig(data)
	if err != nil {
		return err
	}
	return writeFileAtomic(fs, path, []byte(content), 0o644)
}

func writeFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(fs, dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}
