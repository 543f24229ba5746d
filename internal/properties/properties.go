package properties

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Overlay bounds modes.
const (
	BoundsFull   = "full"
	BoundsWindow = "window"
)

type Properties struct {
	Raster  RasterProperties  `mapstructure:"raster"`
	Samples SamplesProperties `mapstructure:"samples"`
	Overlay OverlayProperties `mapstructure:"overlay"`
	Map     MapProperties     `mapstructure:"map"`
	Server  ServerProperties  `mapstructure:"server"`
	Output  OutputProperties  `mapstructure:"output"`
	Cache   CacheProperties   `mapstructure:"cache"`
	Log     LogProperties     `mapstructure:"log"`
	Notify  NotifyProperties  `mapstructure:"notify"`
}

type RasterProperties struct {
	Path      string `mapstructure:"path"`
	MaxWindow int    `mapstructure:"max_window"`
}

type SamplesProperties struct {
	// Path is an optional CSV with latitude,longitude,ndvi columns.
	Path string `mapstructure:"path"`
}

type OverlayProperties struct {
	Opacity float64 `mapstructure:"opacity"`
	Bounds  string  `mapstructure:"bounds"`
}

type MapProperties struct {
	Zoom  int    `mapstructure:"zoom"`
	Tiles string `mapstructure:"tiles"`
}

type ServerProperties struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type OutputProperties struct {
	Dir string `mapstructure:"dir"`
}

type CacheProperties struct {
	Dir string `mapstructure:"dir"`
	// MaxAge expires cached overlays; zero keeps them until the raster changes.
	MaxAge time.Duration `mapstructure:"max_age"`
}

type LogProperties struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotifyProperties struct {
	DiscordErrorURL string `mapstructure:"discord_error_url"`
}

func RootPath() string {
	root := os.Getenv("ROOT_PATH")
	if root == "" {
		return "."
	}
	return root
}

// loadDotEnv loads the first .env found walking up from the working directory.
// A missing file is not an error.
func loadDotEnv() error {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		err := godotenv.Load(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads .env, an optional config file, NDVI_* environment variables and
// command line flags, in increasing priority. configFile may be empty, in
// which case config.yaml is searched in the working directory and ./configs.
// flags may be nil; a "port" flag overrides server.port when set.
func Load(configFile string, flags *pflag.FlagSet) (*Properties, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	root := RootPath()
	v.SetDefault("raster.path", filepath.Join(root, "data", "ndvi.tif"))
	v.SetDefault("raster.max_window", 500)
	v.SetDefault("samples.path", "")
	v.SetDefault("overlay.opacity", 0.6)
	v.SetDefault("overlay.bounds", BoundsFull)
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.tiles", "OpenStreetMap")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("output.dir", filepath.Join(root, "data", "result"))
	v.SetDefault("cache.dir", filepath.Join(root, "data", "cache"))
	v.SetDefault("cache.max_age", "168h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("notify.discord_error_url", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // optional
	}

	// NDVI_RASTER_PATH -> raster.path
	v.SetEnvPrefix("NDVI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("port"); f != nil {
			if err := v.BindPFlag("server.port", f); err != nil {
				return nil, fmt.Errorf("failed to bind port flag: %w", err)
			}
		}
	}

	var p Properties
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate reports every invalid field at once.
func (p *Properties) Validate() error {
	var errs []string

	if p.Raster.Path == "" {
		errs = append(errs, "raster.path is required")
	}
	if p.Raster.MaxWindow <= 0 {
		errs = append(errs, fmt.Sprintf("raster.max_window must be positive, got %d", p.Raster.MaxWindow))
	}
	if p.Overlay.Opacity < 0 || p.Overlay.Opacity > 1 {
		errs = append(errs, fmt.Sprintf("overlay.opacity must be within [0,1], got %v", p.Overlay.Opacity))
	}
	if p.Overlay.Bounds != BoundsFull && p.Overlay.Bounds != BoundsWindow {
		errs = append(errs, fmt.Sprintf("overlay.bounds must be %q or %q, got %q", BoundsFull, BoundsWindow, p.Overlay.Bounds))
	}
	if p.Map.Zoom < 0 || p.Map.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-22, got %d", p.Map.Zoom))
	}
	if p.Server.Port <= 0 || p.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", p.Server.Port))
	}
	if p.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if p.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if p.Cache.MaxAge < 0 {
		errs = append(errs, fmt.Sprintf("cache.max_age must not be negative, got %s", p.Cache.MaxAge))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func DiscordErrorNotificationUrl(p *Properties) string {
	if p != nil && p.Notify.DiscordErrorURL != "" {
		return p.Notify.DiscordErrorURL
	}
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}
