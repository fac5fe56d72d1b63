package testutils

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/kelseyhightower/envconfig"
)

var cfg *aws.Config

// DynamoDBConfig is an object that we fill from .env.
type DynamoDBConfig struct {
	Region    string
	Endpoint  string `envconfig:"DYNAMODB_ENDPOINT"`
	AccessID  string `envconfig:"ACCESS_KEY_ID"`
	SecretKey string `envconfig:"SECRET_ACCESS_KEY"`
}

// GetAWSCfg is a quick way to retrieve an AWS config. Uses environment
// variables; point DYNAMODB_ENDPOINT at a local DynamoDB for tests.
func GetAWSCfg() aws.Config {
	if cfg == nil {
		var conf DynamoDBConfig
		envconfig.MustProcess("AWSCONFIG", &conf)

		opts := []func(*config.LoadOptions) error{
			config.WithRegion(conf.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(conf.AccessID, conf.SecretKey, ""),
			),
		}
		if conf.Endpoint != "" {
			opts = append(opts, config.WithEndpointResolverWithOptions(
				aws.EndpointResolverWithOptionsFunc(
					func(service, region string, options ...interface{}) (aws.Endpoint, error) {
						return aws.Endpoint{URL: conf.Endpoint}, nil
					}),
			))
		}

		c, err := config.LoadDefaultConfig(context.TODO(), opts...)
		if err != nil {
			panic(err)
		}
		cfg = &c
	}
	return *cfg
}
