package config

import (
	"flag"
	"github.com/ilyakaznacheev/cleanenv"
	"os"
	"time"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	ApiPort    int    `yaml:"api_port" env:"API_PORT" env-default:"3000"`
	ApiHost    string `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	Storage    string `yaml:"storage" env:"STORAGE" env-default:"postgres" env-choices:"postgres,memory"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Auth       `yaml:"auth"`
}

type HTTPServer struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

type Postgres struct {
	Host    string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"POSTGRES_PORT" env-default:"5433"`
	User    string `yaml:"user" env:"POSTGRES_USER" env-default:"test"`
	Pass    string `yaml:"pass" env:"POSTGRES_PASSWORD" env-default:"12345"`
	Db      string `yaml:"db" env:"POSTGRES_DB" env-default:"bank_db"`
	SSLMode string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// DSN builds a lib/pq connection URL.
func (p Postgres) DSN() string {
	return "postgres://" + p.User + ":" + p.Pass + "@" + p.Host + ":" + p.Port + "/" + p.Db + "?sslmode=" + p.SSLMode
}

func MustLoad() *Config {
	path := fetchConfigPath()

	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(path string) *Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
