//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/2beens/macrotrack/internal"
	"github.com/2beens/macrotrack/internal/config"

	"github.com/brianvoe/gofakeit/v6"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/crypto/bcrypt"
)

const (
	serverPort = 9000
	serverHost = "localhost"

	postgresDBName   = "macrotrack"
	postgresUser     = "postgres"
	postgresPassword = "postgres"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

// Suite holds the containers and the running server shared by the tests.
type Suite struct {
	DB         *sql.DB
	pgPort     string
	dockerPool *dockertest.Pool
	server     *internal.Server
	teardown   []func()

	adminUsername string
	adminPassword string
}

func newSuite(ctx context.Context) (*Suite, error) {
	s := &Suite{
		adminUsername: gofakeit.Username(),
		adminPassword: gofakeit.Password(true, true, true, false, false, 16),
	}

	var err error
	s.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not create new dockertest pool: %w", err)
	}
	if err := s.dockerPool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping dockertest pool: %w", err)
	}
	s.dockerPool.MaxWait = time.Minute

	redisPort, err := s.redisSetup()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("setup redis: %w", err)
	}
	log.Println("redis setup successful")

	s.pgPort, err = s.postgresSetup()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("setup postgres: %w", err)
	}
	log.Println("postgres setup successful")

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.MinCost)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	cfg := getTestConfig(redisPort, s.pgPort)
	s.server, err = internal.NewServer(ctx, internal.NewServerParams{
		Config: cfg,
		Secrets: &config.Secrets{
			PostgresPassword:  postgresPassword,
			AdminUsername:     s.adminUsername,
			AdminPasswordHash: string(passwordHash),
			OtelServiceName:   "macrotrack",
		},
		VersionInfo: "test-version-info",
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("new server: %w", err)
	}

	s.server.Serve(ctx, cfg.Host, cfg.Port)
	log.Println("server started")

	return s, nil
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
		s.server = nil
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("test suite db close error: %s", err)
		}
	}
	for _, teardown := range s.teardown {
		teardown()
	}
	s.teardown = nil
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Environment:           "test",
		Host:                  serverHost,
		Port:                  serverPort,
		PrometheusMetricsHost: serverHost,
		PrometheusMetricsPort: "0",
		Storage:               config.StoragePostgres,
		PostgresHost:          "localhost",
		PostgresPort:          postgresPort,
		PostgresDBName:        postgresDBName,
		PostgresUser:          postgresUser,
		RedisHost:             "localhost",
		RedisPort:             redisPort,
		SyncDebounce:          config.Duration{Duration: 200 * time.Millisecond},
		SyncRateLimitPerMin:   30,
		SummaryCacheSizeMB:    1,
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %w", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := s.dockerPool.Purge(redisResource); err != nil {
			log.Printf("redis teardown: %s", err)
		}
	})

	return redisResource.GetPort("6379/tcp"), nil
}

func (s *Suite) postgresSetup() (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + postgresUser,
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDBName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %w", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := s.dockerPool.Purge(pgResource); err != nil {
			log.Printf("postgres teardown: %s", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	if err := s.dockerPool.Retry(func() error {
		db, err := sql.Open("postgres", postgresDSN(pgPort))
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return err
		}
		s.DB = db
		return nil
	}); err != nil {
		return "", fmt.Errorf("connect to db: %w", err)
	}

	return pgPort, nil
}

func postgresDSN(port string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@localhost:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, port, postgresDBName,
	)
}
