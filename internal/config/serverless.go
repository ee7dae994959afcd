package config

import (
	"os"
	"sync"
)

// ServerlessConfig describes the Lambda execution environment, when there is one
type ServerlessConfig struct {
	IsLambda        bool
	FunctionName    string
	FunctionVersion string
	MemoryMB        int
	Region          string
	Stage           string
}

var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration, read once per process
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = detectServerless()
	})
	return serverlessConfig
}

func detectServerless() *ServerlessConfig {
	name := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	return &ServerlessConfig{
		IsLambda:        name != "",
		FunctionName:    name,
		FunctionVersion: os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		MemoryMB:        GetEnvAsInt("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", 0),
		Region:          os.Getenv("AWS_REGION"),
		Stage:           GetEnv("STAGE", "dev"),
	}
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// Details returns the non-sensitive fields exposed by the health endpoint
// outside production.
func (s *ServerlessConfig) Details() map[string]interface{} {
	details := map[string]interface{}{
		"deployment_mode": GetDeploymentMode(),
		"stage":           s.Stage,
	}
	if s.IsLambda {
		details["function_name"] = s.FunctionName
		details["function_version"] = s.FunctionVersion
		details["region"] = s.Region
		if s.MemoryMB > 0 {
			details["memory_mb"] = s.MemoryMB
		}
	}
	return details
}
