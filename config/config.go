// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for seqrec.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Storage StorageConfig `mapstructure:"storage"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Meta    MetaConfig    `mapstructure:"meta"`
}

type DataConfig struct {
	Dataset    string `mapstructure:"dataset"`
	AllInTest  bool   `mapstructure:"all_in_test"`
	SaveSplits bool   `mapstructure:"save_splits"`
}

// StorageConfig locates interaction logs and split outputs. Input and output are
// blob URLs: a plain path, file://, s3://, gs:// or azblob://.
type StorageConfig struct {
	Input  string          `mapstructure:"input" validate:"required"`
	Output string          `mapstructure:"output"`
	S3     S3Config        `mapstructure:"s3"`
	GCS    GCSConfig       `mapstructure:"gcs"`
	Azure  AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

type SamplerConfig struct {
	BatchSize         int           `mapstructure:"batch_size" validate:"gt=0"`
	MaxLen            int           `mapstructure:"maxlen" validate:"gt=0"`
	NumWorkers        int           `mapstructure:"n_workers" validate:"gt=0"`
	Seed              int64         `mapstructure:"seed"`
	ExplicitNegatives bool          `mapstructure:"explicit_negatives"`
	PDislike          float64       `mapstructure:"p_dislike" validate:"gte=0,lte=1"`
	WDislike          float32       `mapstructure:"w_dislike" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout" validate:"gte=0"`
}

type EvalConfig struct {
	Mode              string `mapstructure:"mode" validate:"oneof=test valid"`
	MaxLen            int    `mapstructure:"maxlen" validate:"gt=0"`
	WeightedDislike   bool   `mapstructure:"weighted_dislike"`
	ExplicitNegatives bool   `mapstructure:"explicit_negatives"`
	TopK              int    `mapstructure:"top_k" validate:"gt=0"`
	NumNegatives      int    `mapstructure:"n_negatives" validate:"gte=0"`
	Jobs              int    `mapstructure:"jobs" validate:"gt=0"`
	Seed              int64  `mapstructure:"seed"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0"`
}

// MetaConfig locates the run ledger. An empty path disables it.
type MetaConfig struct {
	Path string `mapstructure:"path" validate:"omitempty,startswith=sqlite://"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Input: ".",
		},
		Sampler: SamplerConfig{
			BatchSize:  64,
			MaxLen:     10,
			NumWorkers: 1,
			PDislike:   0.5,
			WDislike:   2.0,
		},
		Eval: EvalConfig{
			Mode:         "test",
			MaxLen:       10,
			TopK:         10,
			NumNegatives: 100,
			Jobs:         1,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [data]
	viper.SetDefault("data.dataset", defaultConfig.Data.Dataset)
	viper.SetDefault("data.all_in_test", defaultConfig.Data.AllInTest)
	viper.SetDefault("data.save_splits", defaultConfig.Data.SaveSplits)
	// [storage]
	viper.SetDefault("storage.input", defaultConfig.Storage.Input)
	viper.SetDefault("storage.output", defaultConfig.Storage.Output)
	viper.SetDefault("storage.s3.endpoint", defaultConfig.Storage.S3.Endpoint)
	viper.SetDefault("storage.s3.access_key_id", defaultConfig.Storage.S3.AccessKeyID)
	viper.SetDefault("storage.s3.secret_access_key", defaultConfig.Storage.S3.SecretAccessKey)
	viper.SetDefault("storage.s3.use_ssl", defaultConfig.Storage.S3.UseSSL)
	viper.SetDefault("storage.gcs.credentials_file", defaultConfig.Storage.GCS.CredentialsFile)
	viper.SetDefault("storage.azure.connection_string", defaultConfig.Storage.Azure.ConnectionString)
	viper.SetDefault("storage.azure.account_name", defaultConfig.Storage.Azure.AccountName)
	viper.SetDefault("storage.azure.account_key", defaultConfig.Storage.Azure.AccountKey)
	viper.SetDefault("storage.azure.endpoint", defaultConfig.Storage.Azure.Endpoint)
	// [sampler]
	viper.SetDefault("sampler.batch_size", defaultConfig.Sampler.BatchSize)
	viper.SetDefault("sampler.maxlen", defaultConfig.Sampler.MaxLen)
	viper.SetDefault("sampler.n_workers", defaultConfig.Sampler.NumWorkers)
	viper.SetDefault("sampler.seed", defaultConfig.Sampler.Seed)
	viper.SetDefault("sampler.explicit_negatives", defaultConfig.Sampler.ExplicitNegatives)
	viper.SetDefault("sampler.p_dislike", defaultConfig.Sampler.PDislike)
	viper.SetDefault("sampler.w_dislike", defaultConfig.Sampler.WDislike)
	viper.SetDefault("sampler.max_retries", defaultConfig.Sampler.MaxRetries)
	viper.SetDefault("sampler.batch_timeout", defaultConfig.Sampler.BatchTimeout)
	// [eval]
	viper.SetDefault("eval.mode", defaultConfig.Eval.Mode)
	viper.SetDefault("eval.maxlen", defaultConfig.Eval.MaxLen)
	viper.SetDefault("eval.weighted_dislike", defaultConfig.Eval.WeightedDislike)
	viper.SetDefault("eval.explicit_negatives", defaultConfig.Eval.ExplicitNegatives)
	viper.SetDefault("eval.top_k", defaultConfig.Eval.TopK)
	viper.SetDefault("eval.n_negatives", defaultConfig.Eval.NumNegatives)
	viper.SetDefault("eval.jobs", defaultConfig.Eval.Jobs)
	viper.SetDefault("eval.seed", defaultConfig.Eval.Seed)
	viper.SetDefault("eval.max_retries", defaultConfig.Eval.MaxRetries)
	// [meta]
	viper.SetDefault("meta.path", defaultConfig.Meta.Path)
}

// LoadConfig loads configuration from a TOML, YAML or JSON file. Environment variables
// prefixed with SEQREC_ override file values, e.g. SEQREC_SAMPLER_N_WORKERS=4. An empty
// path loads defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefault()
	viper.SetEnvPrefix("SEQREC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var config Config
	if err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

// Validate checks field constraints declared in struct tags.
func (config *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return errors.Annotate(err, "invalid config")
	}
	return nil
}
