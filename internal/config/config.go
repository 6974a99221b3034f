package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env:"APP_ENV" env-default:"local"`
	Listen struct {
		BindIP  string `yaml:"bind_ip" env:"BIND_IP" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env:"PORT" env-default:"3001"`
		Timeout int    `yaml:"timeout" env-default:"5"`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"true"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"dance-school"`
	} `yaml:"mongo"`
	Jwt struct {
		Secret string        `yaml:"secret" env:"JWT_SECRET" env-default:""`
		TTL    time.Duration `yaml:"ttl" env-default:"168h"`
	} `yaml:"jwt"`
	Redis struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		URL     string `yaml:"url" env:"REDIS_URL" env-default:"redis://127.0.0.1:6379/0"`
		Channel string `yaml:"channel" env-default:"danceschool:chat:new-message"`
	} `yaml:"redis"`
	Cors struct {
		Origins []string `yaml:"origins" env-default:"http://localhost:3000"`
	} `yaml:"cors"`
	Bootstrap struct {
		Username string `yaml:"username" env-default:""`
		Password string `yaml:"password" env-default:""`
		Name     string `yaml:"name" env-default:"Administrator"`
	} `yaml:"bootstrap"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}

func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
		}
	})
	if instance == nil && err == nil {
		err = fmt.Errorf("config was not loaded")
	}
	return instance, err
}
