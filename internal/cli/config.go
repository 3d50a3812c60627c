package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "INKWELL"
	configName     = "inkwell"
	configFileEnv  = "INKWELL_CONFIG_FILE"
	defaultEnvFile = ".env"
)

var configKeys = []string{
	"root", "dist", "pages", "layouts", "partials", "helpers", "data",
	"default_layout", "style_entry", "style_include_paths", "style_watch_dirs",
	"sass_binary", "images", "hover_css", "production", "port",
}

// loadConfig resolves the config from, in order of precedence: changed
// flags, INKWELL_* environment variables (a .env file is loaded first),
// the config file, and finally the built-in defaults.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*common.Config, error) {
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %v", defaultEnvFile, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %v", key, err)
		}
	}

	for _, name := range []string{"production", "root", "port"} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, fmt.Errorf("error binding flag %s: %v", name, err)
			}
		}
	}

	cfgFile, _ := flags.GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv(configFileEnv)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	config := &common.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error decoding config: %v", err)
	}
	config.ApplyDefaults()
	return config, nil
}
