package transport

import "github.com/spf13/viper"

type Config struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("allowed_origins"), []string{"*"})
}
