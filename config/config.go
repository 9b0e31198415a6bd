package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "SHOP_CONFIG_FILE"

const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type storage struct {
	Driver      string `mapstructure:"driver"`
	BoltPath    string `mapstructure:"bolt_path"`
	SQLDB       string `mapstructure:"sql_db"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type notifications struct {
	DefaultDuration time.Duration `mapstructure:"default_duration"`
}

type carts struct {
	MaxOpen int `mapstructure:"max_open"`
}

type topics struct {
	CartEvents string `mapstructure:"cart_events"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string      `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string      `mapstructure:"schema_registry_urls"`
	Topics             topics        `mapstructure:"topics"`
	TLS                brokerTLS     `mapstructure:"tls"`
	ProduceTimeout     time.Duration `mapstructure:"produce_timeout"`
	ForwardBuffer      int           `mapstructure:"forward_buffer"`
}

// Enabled reports whether cart events are forwarded to the brokers.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

func (t brokerTLS) Enabled() bool {
	return t.CA != "" || t.Cert != ""
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	BasePath       string        `mapstructure:"base_path"`
	StaticDir      string        `mapstructure:"static_dir"`
	CatalogFile    string        `mapstructure:"catalog_file"`
	Storage        storage       `mapstructure:"storage"`
	Carts          carts         `mapstructure:"carts"`
	Notifications  notifications `mapstructure:"notifications"`
	Broker         broker        `mapstructure:"broker"`
}

func Load() Config {
	setDefaults()
	viper.SetConfigFile(getConfigFilepath())

	err := viper.ReadInConfig()
	if err != nil {
		die(err)
	}

	var cfg Config
	err = viper.UnmarshalExact(&cfg, viper.DecodeHook(decodeHook()))
	if err != nil {
		die(err)
	}

	if err := cfg.validate(); err != nil {
		die(err)
	}

	return cfg
}

// decodeHook extends the viper defaults with text unmarshalers
// for the slog.Level fields.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("http_server_addr", ":8080")
	viper.SetDefault("base_path", "/")
	viper.SetDefault("storage.driver", DriverBolt)
	viper.SetDefault("storage.bolt_path", "shop.db")
	viper.SetDefault("storage.redis_prefix", "shop:")
	viper.SetDefault("carts.max_open", 10000)
	viper.SetDefault("notifications.default_duration", 3*time.Second)
	viper.SetDefault("broker.topics.cart_events", "cart_events")
	viper.SetDefault("broker.produce_timeout", 5*time.Second)
	viper.SetDefault("broker.forward_buffer", 1024)
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case DriverBolt, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.Carts.MaxOpen <= 0 {
		return fmt.Errorf("carts.max_open: must be positive, got %d", c.Carts.MaxOpen)
	}
	if c.Broker.ProduceTimeout <= 0 {
		return fmt.Errorf("broker.produce_timeout: must be positive")
	}
	if c.Broker.ForwardBuffer <= 0 {
		return fmt.Errorf("broker.forward_buffer: must be positive")
	}
	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		return fmt.Errorf("broker.schema_registry_urls: required with seed_brokers")
	}
	return nil
}

// getConfigFilepath prefers the environment over the --config flag.
// Unknown flags are left to the command.
func getConfigFilepath() string {
	if env, ok := os.LookupEnv(configFileEnvName); ok {
		return env
	}
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	LogFile=%q
	HTTPServerAddr=%q
	BasePath=%q
	StaticDir=%q
	CatalogFile=%q

	Storage:
	Driver=%q
	BoltPath=%q
	RedisPrefix=%q

	Carts:
	MaxOpen=%d

	Notifications:
	DefaultDuration=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	ProduceTimeout=%s
	ForwardBuffer=%d
	Topics:
		CartEvents=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.LogFile,
		c.HTTPServerAddr,
		c.BasePath,
		c.StaticDir,
		c.CatalogFile,
		c.Storage.Driver,
		c.Storage.BoltPath,
		c.Storage.RedisPrefix,
		c.Carts.MaxOpen,
		c.Notifications.DefaultDuration,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.ProduceTimeout,
		c.Broker.ForwardBuffer,
		c.Broker.Topics.CartEvents,
	)
}
