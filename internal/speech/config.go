package speech

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Endpoint overrides the region-derived STS URL, mainly for tests.
	Endpoint string        `mapstructure:"endpoint"`
	Key      string        `mapstructure:"key"`
	Region   string        `mapstructure:"region"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("endpoint"), "")
	v.SetDefault(p("key"), "")
	v.SetDefault(p("region"), "")
	v.SetDefault(p("timeout"), 10*time.Second)
}
