package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Academic AcademicConfig
		Planner  PlannerConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionTTL                time.Duration
		SessionCapacity           int
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// AcademicConfig points at the university's academic-records API.
	AcademicConfig struct {
		LoginURL          string
		CurriculumURL     string
		CompletionURL     string
		CurriculumToken   string
		Timeout           time.Duration
		CurriculumCacheSz int
	}

	PlannerConfig struct {
		CreditCap int
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewConfig loads the configuration for the current ENV (DEV by default) from the environment,
// after loading config/.env.<env> if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Malla")
	v.SetDefault("secretKey", "x1u8-dq)o3z$+mc=7a&kfb(h!r)#*w2(#p4h^$tvn0x3ly")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 2*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 12*time.Hour)
	v.SetDefault("sessionTTL", 2*time.Hour)
	v.SetDefault("sessionCapacity", 2048)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseName", "malla")
	v.SetDefault("databaseUser", "malla")
	v.SetDefault("databasePassword", "malla")
	v.SetDefault("databaseAdminUser", "")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("academicLoginURL", "https://puclaro.ucn.cl/eross/avance/login.php")
	v.SetDefault("academicCurriculumURL", "https://losvilos.ucn.cl/hawaii/api/mallas")
	v.SetDefault("academicCompletionURL", "https://puclaro.ucn.cl/eross/avance/avance.php")
	v.SetDefault("academicCurriculumToken", "")
	v.SetDefault("academicTimeout", 10*time.Second)
	v.SetDefault("academicCurriculumCacheSize", 128)

	v.SetDefault("plannerCreditCap", 30)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			SessionTTL:                v.GetDuration("sessionTTL"),
			SessionCapacity:           v.GetInt("sessionCapacity"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Academic: AcademicConfig{
			LoginURL:          v.GetString("academicLoginURL"),
			CurriculumURL:     v.GetString("academicCurriculumURL"),
			CompletionURL:     v.GetString("academicCompletionURL"),
			CurriculumToken:   v.GetString("academicCurriculumToken"),
			Timeout:           v.GetDuration("academicTimeout"),
			CurriculumCacheSz: v.GetInt("academicCurriculumCacheSize"),
		},
		Planner: PlannerConfig{
			CreditCap: v.GetInt("plannerCreditCap"),
		},
	}
	if conf.TestMode {
		conf.Database.Name = fmt.Sprintf("test_%s", conf.Database.Name)
	}
	return conf
}

// NewTestConfig returns a Config suitable for unit tests; nothing is read from the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		AppName:   "Malla",
		TestMode:  true,
		SecretKey: "secret",
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			SessionTTL:                time.Hour,
			SessionCapacity:           64,
		},
		Academic: AcademicConfig{Timeout: 5 * time.Second, CurriculumCacheSz: 8},
		Planner:  PlannerConfig{CreditCap: 30},
	}
}
