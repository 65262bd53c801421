package config

import "strings"

type EnvVars struct {
	AppName   string `env:"APP_NAME" envDefault:"Livit Storefront"`
	Env       string `env:"ENV" envDefault:"DEV"`
	LogLevel  string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`
	SignInURL string `env:"STOREFRONT_SIGNIN_URL" envDefault:"/Home/Registration"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}

// GetSignInURL is where a user is sent once their session can no longer be recovered.
func (e EnvVars) GetSignInURL() string {
	return e.SignInURL
}

func (e EnvVars) IsDevelopment() bool {
	return e.GetEnv() == "DEV"
}
