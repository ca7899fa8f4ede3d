// Package config holds the settings used to assemble a machine. Settings come
// from defaults, then a YAML file, then the environment (which may itself be
// loaded from .env files).
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/zealfabric/dma"
	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/mmu"
)

// Environment variables that override the file settings.
const (
	EnvROMImage    = "ZEAL_ROM_IMAGE"
	EnvRecordPath  = "ZEAL_RECORD_PATH"
	EnvMonitorPort = "ZEAL_MONITOR_PORT"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Region is a range of the physical memory space.
type Region struct {
	Base uint32 `yaml:"base"`
	Size uint32 `yaml:"size"`
}

func (r Region) end() uint64 {
	return uint64(r.Base) + uint64(r.Size)
}

func (r Region) overlaps(o Region) bool {
	return uint64(r.Base) < o.end() && uint64(o.Base) < r.end()
}

// ROMConfig configures the flash. Image is flashed at offset 0 when the
// machine is built.
type ROMConfig struct {
	Region `yaml:",inline"`
	Image  string `yaml:"image,omitempty"`
}

// PortConfig places an I/O device.
type PortConfig struct {
	BasePort uint8 `yaml:"base_port"`
}

// MonitorConfig configures the monitoring server. Port 0 picks a free port.
type MonitorConfig struct {
	Port int `yaml:"port"`
}

// RecordConfig configures the SQLite trace recording. An empty Path
// disables recording.
type RecordConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Config is the whole configuration of a machine.
type Config struct {
	ROM     ROMConfig     `yaml:"rom"`
	RAM     Region        `yaml:"ram"`
	DMA     PortConfig    `yaml:"dma"`
	MMU     PortConfig    `yaml:"mmu"`
	Monitor MonitorConfig `yaml:"monitor"`
	Record  RecordConfig  `yaml:"record"`

	// NoReset skips the reset that follows power-on.
	NoReset bool `yaml:"no_reset"`
}

// Default returns the configuration of a stock Zeal 8-bit computer.
func Default() Config {
	return Config{
		ROM: ROMConfig{Region: Region{Base: 0x000000, Size: 256 * mem.KB}},
		RAM: Region{Base: 0x080000, Size: 512 * mem.KB},
		DMA: PortConfig{BasePort: dma.DefaultBasePort},
		MMU: PortConfig{BasePort: mmu.DefaultBasePort},
	}
}

// Load reads a YAML file over the defaults. Fields missing in the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnvFiles loads .env files into the process environment. Variables that
// are already set are not overwritten. Without arguments, ./.env is loaded if
// it exists.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}

	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}

	return nil
}

// ApplyEnv overrides the configuration with the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvROMImage); ok {
		c.ROM.Image = v
	}

	if v, ok := os.LookupEnv(EnvRecordPath); ok {
		c.Record.Path = v
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvMonitorPort, v, err)
		}

		c.Monitor.Port = port
	}

	return nil
}

// Validate checks that the machine described can be built.
func (c Config) Validate() error {
	if err := validateRegion("rom", c.ROM.Region); err != nil {
		return err
	}

	if err := validateRegion("ram", c.RAM); err != nil {
		return err
	}

	if c.ROM.overlaps(c.RAM) {
		return fmt.Errorf("rom and ram overlap: %w", ErrInvalid)
	}

	dmaPorts := Region{Base: uint32(c.DMA.BasePort), Size: dma.NumRegisters}
	mmuPorts := Region{Base: uint32(c.MMU.BasePort), Size: mmu.NumVirtualPages}

	if dmaPorts.end() > mem.IOSpaceSize || mmuPorts.end() > mem.IOSpaceSize {
		return fmt.Errorf("device ports beyond 0xFF: %w", ErrInvalid)
	}

	if dmaPorts.overlaps(mmuPorts) {
		return fmt.Errorf("dma and mmu ports overlap: %w", ErrInvalid)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("monitor port %d: %w", c.Monitor.Port, ErrInvalid)
	}

	return nil
}

func validateRegion(name string, r Region) error {
	if r.Size == 0 || r.Base%mem.PageSize != 0 || r.Size%mem.PageSize != 0 {
		return fmt.Errorf("%s 0x%06x+0x%x is not page aligned: %w",
			name, r.Base, r.Size, ErrInvalid)
	}

	if r.end() > mem.MemSpaceSize {
		return fmt.Errorf("%s 0x%06x+0x%x is beyond 4 MiB: %w",
			name, r.Base, r.Size, ErrInvalid)
	}

	return nil
}

// Dump writes the configuration as YAML.
func (c Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("dumping config: %w", err)
	}

	return enc.Close()
}

// Save writes the configuration to a YAML file.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer f.Close()

	return c.Dump(f)
}
