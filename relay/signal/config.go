package signal

import "github.com/spf13/viper"

type Config struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// per-connection signal throughput; payloads over the limit are dropped
	SignalRate  float64 `mapstructure:"signal_rate"`
	SignalBurst int     `mapstructure:"signal_burst"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("allowed_origins"), []string{"*"})
	v.SetDefault(p("signal_rate"), 100.0)
	v.SetDefault(p("signal_burst"), 200)
}
