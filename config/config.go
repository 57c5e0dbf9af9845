package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/l2gate/gate/bridge"
	"github.com/l2gate/gate/log"
	"github.com/l2gate/gate/messaging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagComponents is the flag for components.
	FlagComponents = "components"

	// EnvVarPrefix is the prefix for the environment variables that
	// override config file values, e.g. GATE_LOG_LEVEL.
	EnvVarPrefix = "GATE"
	// ConfigType is the file format of the configuration
	ConfigType = "toml"
)

// Config represents the configuration of the gate node
type Config struct {
	// Log configures the log level for all the services, allows also to store the logs in a file
	Log log.Config
	// Bridge is the config of the bridge contract state
	Bridge bridge.Config
	// Relay is the config of the outbound message relay
	Relay messaging.RelayConfig
	// RPC is the config for the RPC server
	RPC jRPC.Config
}

// Default parses the default configuration values.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := loadString(cfg, DefaultValues, ConfigType, false, EnvVarPrefix); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads the configuration: the default values overridden, in order,
// by each file passed through the cfg flag and then by env vars.
func Load(ctx *cli.Context) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, fmt.Errorf("error loading default config. Err: %w", err)
	}
	for _, configFilePath := range ctx.StringSlice(FlagCfg) {
		fileContent, err := readFileToString(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %s. Err:%w", configFilePath, err)
		}
		fileExtension := getFileExtension(configFilePath)
		if fileExtension != ConfigType {
			return nil, fmt.Errorf("unsupported config file type %s: %s", fileExtension, configFilePath)
		}
		if err := loadString(cfg, fileContent, ConfigType, true, EnvVarPrefix); err != nil {
			return nil, fmt.Errorf("error loading config file %s. Err:%w", configFilePath, err)
		}
	}
	return cfg, nil
}

func getFileExtension(fileName string) string {
	return fileName[strings.LastIndex(fileName, ".")+1:]
}

func readFileToString(filePath string) (string, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func loadString(cfg *Config, configData string, configType string,
	allowEnvVars bool, envPrefix string) error {
	viper.SetConfigType(configType)
	if allowEnvVars {
		replacer := strings.NewReplacer(".", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.SetEnvPrefix(envPrefix)
		viper.AutomaticEnv()
	}
	err := viper.ReadConfig(bytes.NewBuffer([]byte(configData)))
	if err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
	return viper.Unmarshal(&cfg, decodeHooks...)
}
