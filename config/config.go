package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	AssistantBackend = "backend"
	AssistantOpenAI  = "openai"

	HistoryBackend  = "backend"
	HistoryDynamoDB = "dynamodb"
)

type API struct {
	BaseURL           string        `yaml:"base_url" env:"MEDNOTE_API_URL" env-default:"https://mednote-backend.onrender.com"`
	Timeout           time.Duration `yaml:"timeout" env:"MEDNOTE_API_TIMEOUT" env-default:"30s"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout" env:"MEDNOTE_TRANSCRIBE_TIMEOUT" env-default:"120s"`
}

type Assistant struct {
	Provider string `yaml:"provider" env:"MEDNOTE_ASSISTANT" env-default:"backend"`
}

type OpenAI struct {
	OpenAIAPIKey       string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string  `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL"`
	OpenAIModel        string  `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
	TranscriptionModel string  `yaml:"transcription_model" env:"OPENAI_TRANSCRIPTION_MODEL" env-default:"whisper-1"`
	ModelTemperature   float32 `yaml:"model_temperature" env:"MODEL_TEMPERATURE" env-default:"0.3"`
	MaxHistoryTokens   int     `yaml:"max_history_tokens" env-default:"3500"`
}

type History struct {
	Backend    string `yaml:"backend" env:"MEDNOTE_HISTORY_BACKEND" env-default:"backend"`
	MaxRecords int    `yaml:"max_records" env-default:"50"`
	PatientID  string `yaml:"patient_id" env:"MEDNOTE_PATIENT_ID" env-default:"anonymous"`
}

type DynamoDB struct {
	Region           string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Table            string `yaml:"table" env:"MEDNOTE_DYNAMODB_TABLE" env-default:"mednote-consultations"`
	PatientIndex     string `yaml:"patient_index" env-default:"patientId-timestamp"`
	EndpointOverride string `yaml:"endpoint_override" env:"MEDNOTE_DYNAMODB_ENDPOINT"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Chat struct {
	ConversationIdleTimeout time.Duration `yaml:"conversation_idle_timeout" env-default:"2h"`
}

type Capture struct {
	FFmpegPath   string        `yaml:"ffmpeg_path" env:"MEDNOTE_FFMPEG" env-default:"ffmpeg"`
	InputFormat  string        `yaml:"input_format" env:"MEDNOTE_CAPTURE_FORMAT" env-default:"pulse"`
	Device       string        `yaml:"device" env:"MEDNOTE_CAPTURE_DEVICE" env-default:"default"`
	StartupGrace time.Duration `yaml:"startup_grace" env-default:"500ms"`
}

// Language.Dir holds the persisted preference when redis is not configured.
// Empty means the user config directory.
type Language struct {
	Default string `yaml:"default" env:"MEDNOTE_LANGUAGE" env-default:"pt"`
	Dir     string `yaml:"dir" env:"MEDNOTE_DATA_DIR"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Ops struct {
	Addr string `yaml:"addr" env:"MEDNOTE_OPS_ADDR"`
}

type Config struct {
	API       API       `yaml:"api"`
	Assistant Assistant `yaml:"assistant"`
	OpenAI    OpenAI    `yaml:"openai"`
	History   History   `yaml:"history"`
	DynamoDB  DynamoDB  `yaml:"dynamodb"`
	Redis     Redis     `yaml:"redis"`
	Chat      Chat      `yaml:"chat"`
	Capture   Capture   `yaml:"capture"`
	Language  Language  `yaml:"language"`
	Log       Log       `yaml:"log"`
	Ops       Ops       `yaml:"ops"`
}

// LoadConfig reads the yaml file at cfgPath and applies environment
// overrides. An empty path reads the environment only.
func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	switch c.Assistant.Provider {
	case AssistantBackend:
	case AssistantOpenAI:
		if c.OpenAI.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai assistant"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown assistant provider %q", c.Assistant.Provider))
	}
	switch c.History.Backend {
	case HistoryBackend:
	case HistoryDynamoDB:
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("dynamodb.table is required for the dynamodb history"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown history backend %q", c.History.Backend))
	}
	if c.History.MaxRecords <= 0 || c.History.MaxRecords > 50 {
		errs = append(errs, fmt.Errorf("history.max_records must be in 1..50, got %d", c.History.MaxRecords))
	}
	return errors.Join(errs...)
}
