package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/crcrepl/replacement"
)

// Config holds everything needed to run one trace replay.
type Config struct {
	Policy        replacement.Policy
	NumSets       int
	Associativity int
	BlockSize     int
	Seed          int64
	SignatureHash string

	// RecordPath is a SQLite database name without the .sqlite3 suffix or a
	// clickhouse:// DSN. Recording is off when Record is false.
	Record     bool
	RecordPath string

	Monitor     bool
	MonitorPort int
	OpenMonitor bool

	VictimHistogram bool

	LogLevel string
}

// DefaultConfig returns the configuration of the CRC last-level cache: 2048
// sets of 16 ways with 64-byte blocks, replaced by LRU.
func DefaultConfig() Config {
	return Config{
		Policy:        replacement.LRU,
		NumSets:       2048,
		Associativity: 16,
		BlockSize:     64,
		Seed:          1,
		SignatureHash: "mask",
	}
}

// Validate reports the first setting that cannot build a cache.
func (c Config) Validate() error {
	if !c.Policy.Implemented() {
		return fmt.Errorf("policy %s is not implemented", c.Policy)
	}

	if c.NumSets <= 0 {
		return fmt.Errorf("number of sets must be positive, got %d", c.NumSets)
	}

	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d",
			c.Associativity)
	}

	if c.Policy == replacement.PLRU && c.Associativity != 16 {
		return fmt.Errorf("plru requires 16 ways, got %d", c.Associativity)
	}

	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size must be a power of two, got %d",
			c.BlockSize)
	}

	if _, err := replacement.ParseSignatureHasher(c.SignatureHash); err != nil {
		return err
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("monitor port %d out of range", c.MonitorPort)
	}

	return nil
}

// Environment keys read by LoadConfig.
const (
	EnvPolicy        = "CRC_POLICY"
	EnvNumSets       = "CRC_NUM_SETS"
	EnvAssociativity = "CRC_ASSOC"
	EnvBlockSize     = "CRC_BLOCK_SIZE"
	EnvSeed          = "CRC_SEED"
	EnvSignatureHash = "CRC_SIGNATURE_HASH"
	EnvRecord        = "CRC_RECORD"
	EnvMonitor       = "CRC_MONITOR"
	EnvMonitorPort   = "CRC_MONITOR_PORT"
	EnvLogLevel      = "CRC_LOG_LEVEL"
)

// LoadConfig starts from DefaultConfig, applies the settings in the env file
// and then the process environment, which wins over the file. A missing env
// file is not an error.
func LoadConfig(envFile string) (Config, error) {
	values := map[string]string{}

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			values = fromFile
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	for _, key := range []string{
		EnvPolicy, EnvNumSets, EnvAssociativity, EnvBlockSize, EnvSeed,
		EnvSignatureHash, EnvRecord, EnvMonitor, EnvMonitorPort, EnvLogLevel,
	} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	return ApplyEnv(DefaultConfig(), values)
}

// ApplyEnv overrides the fields of c named by the CRC_* keys in env.
func ApplyEnv(c Config, env map[string]string) (Config, error) {
	var err error

	if v, ok := env[EnvPolicy]; ok {
		if c.Policy, err = replacement.ParsePolicy(v); err != nil {
			return c, err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvNumSets, &c.NumSets},
		{EnvAssociativity, &c.Associativity},
		{EnvBlockSize, &c.BlockSize},
		{EnvMonitorPort, &c.MonitorPort},
	}
	for _, i := range ints {
		v, ok := env[i.key]
		if !ok {
			continue
		}

		if *i.dst, err = strconv.Atoi(v); err != nil {
			return c, fmt.Errorf("%s: %w", i.key, err)
		}
	}

	if v, ok := env[EnvSeed]; ok {
		if c.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return c, fmt.Errorf("%s: %w", EnvSeed, err)
		}
	}

	if v, ok := env[EnvSignatureHash]; ok {
		c.SignatureHash = v
	}

	if v, ok := env[EnvRecord]; ok && v != "" {
		c.Record = true
		if record, err := strconv.ParseBool(v); err == nil {
			c.Record = record
		} else {
			c.RecordPath = v
		}
	}

	if v, ok := env[EnvMonitor]; ok {
		if c.Monitor, err = strconv.ParseBool(v); err != nil {
			return c, fmt.Errorf("%s: %w", EnvMonitor, err)
		}
	}

	if v, ok := env[EnvLogLevel]; ok {
		c.LogLevel = v
	}

	return c, nil
}
