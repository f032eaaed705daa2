package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "TOTALTIMING_"

type Application struct {
	Server   Server   `koanf:"server"`
	Auth     Auth     `koanf:"auth"`
	Report   Report   `koanf:"report"`
	Users    Users    `koanf:"users"`
	Database Database `koanf:"db"`
}

type Server struct {
	Address string `koanf:"address"`
	// AllowedOrigins lists the browser origins accepted by the CORS middleware.
	AllowedOrigins []string `koanf:"allowedorigins"`
}

type Auth struct {
	// Secret is the HS256 key used to verify access tokens issued by the credential service.
	Secret string `koanf:"secret"`
	// TrustUserHeader accepts the X-User-Id header as the caller identity. Only for deployments
	// behind an authenticating proxy.
	TrustUserHeader bool `koanf:"trustuserheader"`
}

type Report struct {
	// Locale is a BCP 47 tag used for ordering names in reports.
	Locale string `koanf:"locale"`
}

type Users struct {
	// DefaultTimezone is assigned to new users created without a timezone.
	DefaultTimezone string `koanf:"defaulttimezone"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func defaults() Application {
	return Application{
		Server: Server{
			Address: ":8800",
			AllowedOrigins: []string{
				"http://localhost:5173",
			},
		},
		Report: Report{
			Locale: "nb",
		},
		Users: Users{
			DefaultTimezone: "Europe/Oslo",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "totaltiming",
			Pass:   "",
			Name:   "totaltiming",
			Schema: "totaltiming",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			// comma separated lists, e.g. TOTALTIMING_SERVER_ALLOWEDORIGINS
			if strings.Contains(v, ",") {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
