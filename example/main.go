// FILE: okube-ai/settus/example/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/okube-ai/settus"
)

// DBConfig is a structured field; it is filled from JSON text or from
// DB__HOST style variables.
type DBConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type AppSettings struct {
	Env      string        `settus:"name:env default:dev alias:APP_ENV,ENVIRONMENT"`
	Timeout  time.Duration `settus:"name:timeout default:5s"`
	Password string        `settus:"name:db_password alias:db-password"`
	DB       DBConfig      `settus:"name:db"`
}

func (s *AppSettings) ConfigureSettings(opts *settus.Options) {
	opts.EnvPrefix = "DEMO_"
	opts.EnvNestedDelimiter = "__"
}

func (s *AppSettings) Validate() error {
	if s.Password == "" {
		return fmt.Errorf("db_password is required")
	}
	return nil
}

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "settus-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	envFile := dir + "/.env"
	if err := os.WriteFile(envFile, []byte("db-password=from-dotenv\nDEMO_DB={\"host\":\"db.local\",\"port\":5432}\n"), 0600); err != nil {
		log.Fatal(err)
	}

	var s AppSettings
	res, err := settus.NewBuilder().
		WithTarget(&s).
		WithEnviron([]string{"APP_ENV=staging", "DEMO_DB__PORT=6543"}).
		WithEnvFile(envFile).
		Build(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("env=%s timeout=%s db=%s:%d\n", s.Env, s.Timeout, s.DB.Host, s.DB.Port)
	fmt.Print(res.Debug())

	// Init values win over every other source.
	var override AppSettings
	if _, err := settus.NewBuilder().
		WithTarget(&override).
		WithInit(map[string]any{"db_password": "explicit"}).
		WithEnviron(nil).
		Build(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("password from init: %t\n", override.Password == "explicit")
}
