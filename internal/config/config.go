package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
// It includes the environment type, database configuration, the bot token,
// the reminder schedule defaults and the seeded admin/test user handles.
type Config struct {
	Env           string         `yaml:"env"`            // Env is the current environment: local, dev, prod.
	Database      PostgresConfig `yaml:"postgres"`       // Database holds the postgres database configuration
	Token         string         `yaml:"token"`          // Token is an unique telegram bot token
	PollerTimeout time.Duration  `yaml:"poller_timeout"` // PollerTimeout its a time which need to close telegram bot poller
	Timezone      string         `yaml:"timezone"`       // Timezone is the named zone used for all calendar math.
	Schedule      ScheduleConfig `yaml:"schedule"`       // Schedule holds the boot-time reminder trigger times.
	AdminHandles  []string       `yaml:"admins"`         // AdminHandles are usernames promoted to admin on first contact.
	TestHandles   []string       `yaml:"test_users"`     // TestHandles are usernames seeded as test placeholders.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// ScheduleConfig holds the HH:MM trigger times resynced into storage at boot.
type ScheduleConfig struct {
	MorningTime   string `yaml:"morning_time"`   // MorningTime triggers the morning broadcast.
	AfternoonTime string `yaml:"afternoon_time"` // AfternoonTime triggers the reminder to non-responders.
}

// MustLoad loads the configuration from the environment, optionally layered
// over a YAML file pointed to by CONFIG_PATH, and returns a Config struct.
// It panics when the bot token is missing or the file cannot be read.
func MustLoad() *Config {
	_ = godotenv.Load()
	viper.Reset()

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	defPollerTimeout := 10

	viper.SetDefault("env", "local")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("telegram.timeout", time.Duration(defPollerTimeout*int(time.Second)))
	viper.SetDefault("timezone", "Asia/Yekaterinburg")
	viper.SetDefault("schedule.morning_time", "08:00")
	viper.SetDefault("schedule.afternoon_time", "15:00")

	_ = viper.BindEnv("env", "BOT_ENV")
	_ = viper.BindEnv("telegram.token", "BOT_TOKEN")
	_ = viper.BindEnv("telegram.timeout", "BOT_POLLER_TIMEOUT")
	_ = viper.BindEnv("postgres.host", "DB_HOST")
	_ = viper.BindEnv("postgres.port", "DB_PORT")
	_ = viper.BindEnv("postgres.user", "DB_USERNAME")
	_ = viper.BindEnv("postgres.password", "DB_PASSWORD")
	_ = viper.BindEnv("postgres.db_name", "DB_NAME")
	_ = viper.BindEnv("timezone", "TIMEZONE")
	_ = viper.BindEnv("schedule.morning_time", "MORNING_BROADCAST_TIME")
	_ = viper.BindEnv("schedule.afternoon_time", "AFTERNOON_REMINDER_TIME")
	_ = viper.BindEnv("users.admins", "DEFAULT_ADMINS")
	_ = viper.BindEnv("users.test", "DEFAULT_TEST_USERS")

	token := viper.GetString("telegram.token")
	if token == "" {
		panic("telegram token is empty")
	}

	return &Config{
		Env:           viper.GetString("env"),
		Token:         token,
		PollerTimeout: viper.GetDuration("telegram.timeout"),
		Database: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Name:     viper.GetString("postgres.db_name"),
		},
		Timezone: viper.GetString("timezone"),
		Schedule: ScheduleConfig{
			MorningTime:   viper.GetString("schedule.morning_time"),
			AfternoonTime: viper.GetString("schedule.afternoon_time"),
		},
		AdminHandles: parseHandleList(viper.GetString("users.admins")),
		TestHandles:  parseHandleList(viper.GetString("users.test")),
	}
}

// parseHandleList splits a comma-separated list of usernames,
// trimming whitespace and a leading @ from every item.
func parseHandleList(raw string) []string {
	if raw == "" {
		return nil
	}

	var handles []string
	for _, item := range strings.Split(raw, ",") {
		handle := strings.TrimPrefix(strings.TrimSpace(item), "@")
		if handle != "" {
			handles = append(handles, handle)
		}
	}

	return handles
}
