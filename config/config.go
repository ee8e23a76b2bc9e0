package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "CHECKOUT_CONFIG_FILE"

const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
)

type consumers struct {
	ShipmentLedgerGroup string `mapstructure:"shipment_ledger_group"`
}

type topics struct {
	ShipmentNotices string `mapstructure:"shipment_notices"`
}

type tls struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tls) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                tls       `mapstructure:"tls"`
}

// Enabled reports whether shipment notices go to Kafka.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type catalog struct {
	Source string `mapstructure:"source"`
	SQLDB  string `mapstructure:"sql_db"`
}

type Customer struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Balance string `mapstructure:"balance"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	Catalog        catalog    `mapstructure:"catalog"`
	Customers      []Customer `mapstructure:"customers"`
	Broker         broker     `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads and checks the config file at path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("catalog.source", CatalogMemory)
	v.SetDefault("broker.topics.shipment_notices", "shipment_notices")
	v.SetDefault("broker.consumers.shipment_ledger_group", "shipment_ledger")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.Catalog.Source {
	case CatalogMemory:
	case CatalogPostgres:
		if c.Catalog.SQLDB == "" {
			errs = append(errs, errors.New("catalog.sql_db is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog.source %q", c.Catalog.Source))
	}

	seen := make(map[string]bool, len(c.Customers))
	for _, cust := range c.Customers {
		if cust.ID == "" {
			errs = append(errs, errors.New("customer id is empty"))
			continue
		}
		if seen[cust.ID] {
			errs = append(errs, fmt.Errorf("duplicate customer %q", cust.ID))
		}
		seen[cust.ID] = true
	}

	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required"))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
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
	HTTPServerAddr=%q

	Catalog:
	Source=%q
	SQLDB=%q

	Customers=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ShipmentNotices=%q
	Consumers:
		ShipmentLedgerGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Catalog.Source,
		c.Catalog.SQLDB,
		len(c.Customers),
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ShipmentNotices,
		c.Broker.Consumers.ShipmentLedgerGroup,
	)
}
